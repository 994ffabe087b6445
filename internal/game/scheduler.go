package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/account"
	"github.com/Eddy-etame/pillarpayout-sub001/internal/config"
)

const (
	betQueueSize     = 1000
	cashoutQueueSize = 1000
	eventQueueSize   = 256

	betTimeout     = 5 * time.Second
	cashoutTimeout = 500 * time.Millisecond
	archiveTimeout = 10 * time.Second
)

var errSchedulerStopped = errors.New("scheduler stopped")

// Archiver receives finished rounds for persistence. Archival is
// fire-and-forget: a failure is logged, never blocks the next round.
type Archiver interface {
	ArchiveRound(ctx context.Context, round *Round, bets []*Bet) error
}

// Scheduler owns the round state machine. One goroutine runs the round
// cycle and is the only writer of round and ledger state; bets, cashouts
// and the emergency stop funnel through channels into that goroutine, so
// every mutation is serialized. Reads go through GetCurrentRound snapshots.
type Scheduler struct {
	cfg       config.Game
	accounts  account.Service
	archiver  Archiver
	clock     Clock
	gen       *Generator
	insurance *InsuranceEngine
	ctx       context.Context

	betChannel     chan BetRequest
	cashoutChannel chan CashoutRequest
	emergencyStop  chan chan error
	stopChan       chan struct{}
	events         chan Event

	stateMutex   sync.RWMutex
	currentRound *Round

	ledger *Ledger // scheduler goroutine only
	nonce  int

	// generate defaults to gen.Generate; swapped for a fixed crash point
	// in tests.
	generate func(serverSeed, clientSeed string, nonce int) (float64, error)
}

func NewScheduler(cfg config.Game, accounts account.Service, archiver Archiver, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	s := &Scheduler{
		cfg:            cfg,
		accounts:       accounts,
		archiver:       archiver,
		clock:          clock,
		gen:            NewGenerator(cfg.HouseEdgePercent, cfg.MaxMultiplier),
		insurance:      NewInsuranceEngine(cfg.Insurance),
		ctx:            context.Background(),
		betChannel:     make(chan BetRequest, betQueueSize),
		cashoutChannel: make(chan CashoutRequest, cashoutQueueSize),
		emergencyStop:  make(chan chan error),
		stopChan:       make(chan struct{}),
		events:         make(chan Event, eventQueueSize),
	}
	s.generate = s.gen.Generate
	return s
}

func (s *Scheduler) Start() {
	go s.gameLoop()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// Events is the outbound stream of round and bet lifecycle events. The
// channel is closed when the round loop exits, so range-style consumers
// terminate on shutdown.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Generator exposes the configured crash-point generator for the public
// verification endpoint.
func (s *Scheduler) Generator() *Generator {
	return s.gen
}

// GetCurrentRound returns a copy of the live round state, or nil before the
// first round starts.
func (s *Scheduler) GetCurrentRound() *Round {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if s.currentRound == nil {
		return nil
	}
	roundCopy := *s.currentRound
	return &roundCopy
}

// PlaceBet queues a bet for the scheduler goroutine and waits for the
// verdict.
func (s *Scheduler) PlaceBet(req BetRequest) BetResponse {
	respChan := make(chan BetResponse, 1)
	req.ResponseChan = respChan

	select {
	case s.betChannel <- req:
		select {
		case resp := <-respChan:
			return resp
		case <-time.After(betTimeout):
			return BetResponse{Success: false, Message: "Bet timeout"}
		}
	default:
		return BetResponse{Success: false, Message: "Bet queue full"}
	}
}

// Cashout queues a cashout for the scheduler goroutine and waits for the
// verdict.
func (s *Scheduler) Cashout(req CashoutRequest) CashoutResponse {
	respChan := make(chan CashoutResponse, 1)
	req.ResponseChan = respChan

	select {
	case s.cashoutChannel <- req:
		select {
		case resp := <-respChan:
			return resp
		case <-time.After(cashoutTimeout):
			return CashoutResponse{Success: false, Message: "Cashout timeout"}
		}
	default:
		return CashoutResponse{Success: false, Message: "Cashout queue full"}
	}
}

// EmergencyStop forces the current round to crash at its current multiplier.
// Settlement still runs, so ledger invariants hold. Returns
// ErrAlreadyCrashed if the round is past the running phase.
func (s *Scheduler) EmergencyStop() error {
	ack := make(chan error, 1)
	select {
	case s.emergencyStop <- ack:
	case <-time.After(betTimeout):
		return errors.New("round engine unavailable")
	}
	select {
	case err := <-ack:
		return err
	case <-time.After(betTimeout):
		return errors.New("emergency stop timed out")
	}
}

func (s *Scheduler) gameLoop() {
	// All publishes happen on this goroutine, so closing here cannot race a
	// send. Consumers like the hub relay unblock once the stream closes.
	defer close(s.events)

	for {
		select {
		case <-s.stopChan:
			log.Println("[GAME] Round loop stopped")
			return
		default:
			if err := s.runRound(); err != nil {
				if errors.Is(err, errSchedulerStopped) {
					log.Println("[GAME] Round loop stopped")
					return
				}
				// Loud halt: an unfair or stuck round is worse than no round.
				log.Printf("[GAME] HALTED, no new rounds will start: %v", err)
				return
			}
		}
	}
}

// runRound drives one full Waiting -> Running -> Crashed -> Results cycle.
func (s *Scheduler) runRound() error {
	s.nonce++

	serverSeed := GenerateSeed()
	commitment := HashCommitment(serverSeed)
	clientSeed := GenerateSeed() // rotated per round
	crashPoint, err := s.generate(serverSeed, clientSeed, s.nonce)
	if err != nil {
		return fmt.Errorf("crash point generation: %w", err)
	}

	roundID := fmt.Sprintf("R%d-%d", s.clock.Now().Unix(), s.nonce)
	round := &Round{
		ID:                roundID,
		ServerSeed:        serverSeed,
		ServerSeedHash:    commitment,
		ClientSeed:        clientSeed,
		Nonce:             s.nonce,
		CrashPoint:        crashPoint,
		State:             StateWaiting,
		CurrentMultiplier: MinMultiplier,
	}

	s.stateMutex.Lock()
	s.currentRound = round
	s.stateMutex.Unlock()
	s.ledger = NewLedger(round, s.cfg.MinBet, s.cfg.MaxBet, s.accounts, s.insurance)

	log.Printf("[GAME] Round %s waiting, commitment %s...", roundID, commitment[:16])

	waitTimer := s.clock.After(s.cfg.WaitingDuration)
	s.publish(Event{Type: EventRoundWaiting, Data: RoundWaitingData{
		RoundID:        roundID,
		ServerSeedHash: commitment,
		MinBet:         s.cfg.MinBet,
		MaxBet:         s.cfg.MaxBet,
	}})

	var emergencyAck chan error
	skipRunning := false

waiting:
	for {
		select {
		case <-waitTimer:
			break waiting
		case req := <-s.betChannel:
			s.processBet(req)
		case req := <-s.cashoutChannel:
			s.processCashout(req)
		case ack := <-s.emergencyStop:
			emergencyAck = ack
			skipRunning = true
			break waiting
		case <-s.stopChan:
			return errSchedulerStopped
		}
	}

	finalMultiplier := MinMultiplier
	if !skipRunning {
		s.stateMutex.Lock()
		round.State = StateRunning
		round.StartedAt = s.clock.Now()
		s.stateMutex.Unlock()

		ticks, stopTicker := s.clock.Ticker(s.cfg.TickInterval)
		defer stopTicker()
		s.publish(Event{Type: EventRoundRunning, Data: RoundRunningData{
			RoundID:   roundID,
			StartedAt: round.StartedAt,
		}})
		log.Printf("[GAME] Round %s running, crash point %.2fx (hidden)", roundID, crashPoint)

	running:
		for {
			select {
			case <-ticks:
				crashed := s.tick(round)
				if crashed {
					finalMultiplier = round.CrashPoint
					break running
				}
			case req := <-s.betChannel:
				s.processBet(req)
			case req := <-s.cashoutChannel:
				s.processCashout(req)
			case ack := <-s.emergencyStop:
				m := MultiplierAt(s.clock.Now().Sub(round.StartedAt))
				if m > round.CrashPoint {
					m = round.CrashPoint
				}
				finalMultiplier = m
				emergencyAck = ack
				break running
			case <-s.stopChan:
				return errSchedulerStopped
			}
		}
	}

	result, dwell, err := s.crashRound(finalMultiplier)
	if emergencyAck != nil {
		emergencyAck <- err
	}
	if err != nil {
		return err
	}
	return s.finishRound(result, dwell)
}

// tick advances the multiplier by one poll interval. Returns true once the
// curve has reached the pre-committed crash point.
func (s *Scheduler) tick(round *Round) bool {
	elapsed := s.clock.Now().Sub(round.StartedAt)
	m := MultiplierAt(elapsed)

	if m >= round.CrashPoint {
		return true
	}

	s.stateMutex.Lock()
	round.CurrentMultiplier = m
	s.stateMutex.Unlock()

	s.publish(Event{Type: EventTick, Data: TickData{RoundID: round.ID, Multiplier: m}})
	s.runAutoCashouts(round, m)
	return false
}

// runAutoCashouts settles every active bet whose auto-cashout target the
// curve has reached, at the same tick value the crash check used.
func (s *Scheduler) runAutoCashouts(round *Round, m float64) {
	for _, bet := range s.ledger.ActiveBets() {
		if bet.AutoCashout <= 0 || m < bet.AutoCashout {
			continue
		}
		cashed, winnings, _, err := s.ledger.cashOutAt(s.ctx, bet.UserID, m, s.clock.Now())
		if err != nil {
			log.Printf("[GAME] Auto-cashout failed for user %s: %v", bet.UserID, err)
			continue
		}
		s.publish(Event{Type: EventCashout, Data: CashoutData{
			RoundID:    round.ID,
			UserID:     cashed.UserID,
			Multiplier: cashed.CashoutMultiplier,
			Winnings:   winnings,
		}})
		log.Printf("[CASHOUT] User %s auto-cashed out at %.2fx (payout %.2f)", cashed.UserID, m, winnings)
	}
}

// crashRound performs the Crashed transition: final multiplier fixed, seeds
// revealed, every unresolved bet settled exactly once. Returns the dwell
// timer for the crashed phase, armed before the crash event goes out.
func (s *Scheduler) crashRound(finalMultiplier float64) (SettlementResult, <-chan time.Time, error) {
	s.stateMutex.Lock()
	round := s.currentRound
	round.State = StateCrashed
	round.CurrentMultiplier = finalMultiplier
	round.CrashedAt = s.clock.Now()
	s.stateMutex.Unlock()

	result, err := s.ledger.SettleRoundCrash(s.ctx, s.clock.Now())
	if err != nil {
		log.Printf("[GAME] INVARIANT VIOLATION settling round %s: %v", round.ID, err)
		return result, nil, err
	}

	dwell := s.clock.After(s.cfg.CrashedDuration)
	s.publish(Event{Type: EventRoundCrashed, Data: RoundCrashedData{
		RoundID:    round.ID,
		CrashPoint: finalMultiplier,
		ServerSeed: round.ServerSeed,
		ClientSeed: round.ClientSeed,
		Nonce:      round.Nonce,
	}})
	log.Printf("[GAME] Round %s crashed at %.2fx", round.ID, finalMultiplier)
	return result, dwell, nil
}

// finishRound runs the crashed dwell and results phases, then returns so
// the loop can open the next round. Requests arriving now are rejected with
// the usual phase errors.
func (s *Scheduler) finishRound(result SettlementResult, dwell <-chan time.Time) error {
	if err := s.idlePhase(dwell); err != nil {
		return err
	}

	s.stateMutex.Lock()
	round := s.currentRound
	round.State = StateResults
	s.stateMutex.Unlock()

	resultsTimer := s.clock.After(s.cfg.ResultsDuration)
	s.publish(Event{Type: EventRoundResults, Data: RoundResultsData{
		RoundID: round.ID,
		Winners: result.Winners,
		Losers:  result.Losers,
	}})

	if s.archiver != nil {
		roundCopy := *round
		bets := s.ledger.Bets()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := s.archiver.ArchiveRound(ctx, &roundCopy, bets); err != nil {
				log.Printf("[GAME] Failed to archive round %s: %v", roundCopy.ID, err)
			}
		}()
	}

	return s.idlePhase(resultsTimer)
}

// idlePhase keeps serving (and rejecting) requests until the phase timer
// fires.
func (s *Scheduler) idlePhase(timer <-chan time.Time) error {
	for {
		select {
		case <-timer:
			return nil
		case req := <-s.betChannel:
			s.processBet(req)
		case req := <-s.cashoutChannel:
			s.processCashout(req)
		case ack := <-s.emergencyStop:
			ack <- ErrAlreadyCrashed
		case <-s.stopChan:
			return errSchedulerStopped
		}
	}
}

func (s *Scheduler) processBet(req BetRequest) {
	resp := BetResponse{}
	defer func() {
		if req.ResponseChan != nil {
			req.ResponseChan <- resp
		}
	}()

	bet, balance, err := s.ledger.PlaceBet(s.ctx, req.UserID, req.Amount, req.AutoCashout, req.InsuranceType)
	if err != nil {
		resp.Message = err.Error()
		resp.Balance = balance
		return
	}

	resp.Success = true
	resp.Message = "Bet placed successfully"
	resp.BetID = bet.ID
	resp.Balance = balance
	if bet.Insurance != nil {
		resp.Premium = bet.Insurance.Premium
	}

	s.publish(Event{Type: EventBetPlaced, Data: BetPlacedData{
		RoundID: bet.RoundID,
		UserID:  bet.UserID,
		Amount:  bet.Amount,
	}})
	log.Printf("[BET] User %s placed %.2f (ID: %s)", bet.UserID, bet.Amount, bet.ID)
}

func (s *Scheduler) processCashout(req CashoutRequest) {
	resp := CashoutResponse{}
	defer func() {
		if req.ResponseChan != nil {
			req.ResponseChan <- resp
		}
	}()

	bet, winnings, balance, err := s.ledger.CashOut(s.ctx, req.UserID, s.clock.Now())
	if err != nil {
		resp.Message = err.Error()
		return
	}

	resp.Success = true
	resp.Message = fmt.Sprintf("Cashed out at %.2fx", bet.CashoutMultiplier)
	resp.Multiplier = bet.CashoutMultiplier
	resp.Payout = winnings
	resp.Balance = balance

	s.publish(Event{Type: EventCashout, Data: CashoutData{
		RoundID:    bet.RoundID,
		UserID:     bet.UserID,
		Multiplier: bet.CashoutMultiplier,
		Winnings:   winnings,
	}})
	log.Printf("[CASHOUT] User %s cashed out at %.2fx (payout %.2f)", bet.UserID, bet.CashoutMultiplier, winnings)
}

func (s *Scheduler) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("[GAME] Event queue full, dropping %s", ev.Type)
	}
}
