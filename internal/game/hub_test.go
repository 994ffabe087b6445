package game

import (
	"sync"
	"testing"
	"time"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHub_GetClientCount(t *testing.T) {
	hub := NewHub()

	if count := hub.GetClientCount(); count != 0 {
		t.Errorf("GetClientCount() = %v, want 0", count)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	time.Sleep(10 * time.Millisecond)

	// Broadcasting with no clients connected should not block.
	hub.Broadcast(Event{Type: EventTick, Data: TickData{RoundID: "R1-1", Multiplier: 1.42}})

	time.Sleep(10 * time.Millisecond)
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()

	// The hub is not running, so the channel fills to capacity.
	for i := 0; i < 100; i++ {
		hub.Broadcast(Event{Type: EventTick, Data: TickData{RoundID: "R1-1", Multiplier: 1.01}})
	}

	// The next broadcast must drop the message instead of blocking.
	done := make(chan bool, 1)
	go func() {
		hub.Broadcast(Event{Type: EventTick, Data: TickData{RoundID: "R1-1", Multiplier: 1.02}})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast() blocked when channel was full")
	}
}

func TestHub_Relay(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	time.Sleep(10 * time.Millisecond)

	events := make(chan Event, 4)
	events <- Event{Type: EventRoundWaiting, Data: RoundWaitingData{RoundID: "R1-1"}}
	events <- Event{Type: EventRoundRunning, Data: RoundRunningData{RoundID: "R1-1"}}
	close(events)

	// Relay returns once the scheduler's event stream closes.
	done := make(chan bool, 1)
	go func() {
		hub.Relay(events)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Relay() did not return after the event stream closed")
	}
}

func TestHub_ConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	broadcasts := 100

	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Broadcast(Event{Type: EventTick, Data: TickData{RoundID: "R1-1", Multiplier: float64(n)}})
		}(i)
	}

	done := make(chan bool)
	go func() {
		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Concurrent broadcasts timed out")
	}
}

func TestHub_GetClientCount_ThreadSafe(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	reads := 100

	for i := 0; i < reads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = hub.GetClientCount()
		}()
	}

	done := make(chan bool)
	go func() {
		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Concurrent GetClientCount() timed out")
	}
}

func BenchmarkHub_Broadcast(b *testing.B) {
	hub := NewHub()
	go hub.Run()

	time.Sleep(10 * time.Millisecond)

	ev := Event{Type: EventTick, Data: TickData{RoundID: "R1-1", Multiplier: 2.00}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.Broadcast(ev)
	}
}

func BenchmarkHub_GetClientCount(b *testing.B) {
	hub := NewHub()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.GetClientCount()
	}
}
