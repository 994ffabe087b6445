package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Game.HouseEdgePercent != 1.0 {
		t.Errorf("HouseEdgePercent = %v, want 1.0", cfg.Game.HouseEdgePercent)
	}
	if cfg.Game.MaxMultiplier != 1000000.0 {
		t.Errorf("MaxMultiplier = %v, want 1000000", cfg.Game.MaxMultiplier)
	}
	if cfg.Game.MinBet != 1.0 || cfg.Game.MaxBet != 10000.0 {
		t.Errorf("bet bounds = [%v, %v], want [1, 10000]", cfg.Game.MinBet, cfg.Game.MaxBet)
	}
	if cfg.Game.WaitingDuration != 5*time.Second {
		t.Errorf("WaitingDuration = %v, want 5s", cfg.Game.WaitingDuration)
	}
	if cfg.Game.TickInterval != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.Game.TickInterval)
	}

	for _, tier := range []string{"basic", "premium", "elite"} {
		if _, ok := cfg.Game.Insurance[tier]; !ok {
			t.Errorf("insurance tier %q missing from defaults", tier)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRASH_HOUSE_EDGE_PERCENT", "2.5")
	t.Setenv("CRASH_MAX_BET", "500")
	t.Setenv("CRASH_WAITING_DURATION", "10s")
	t.Setenv("INSURANCE_ELITE_COVERAGE", "0.60")
	t.Setenv("ADMIN_TOKEN", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Game.HouseEdgePercent != 2.5 {
		t.Errorf("HouseEdgePercent = %v, want 2.5", cfg.Game.HouseEdgePercent)
	}
	if cfg.Game.MaxBet != 500 {
		t.Errorf("MaxBet = %v, want 500", cfg.Game.MaxBet)
	}
	if cfg.Game.WaitingDuration != 10*time.Second {
		t.Errorf("WaitingDuration = %v, want 10s", cfg.Game.WaitingDuration)
	}
	if cfg.Game.Insurance["elite"].CoverageRate != 0.60 {
		t.Errorf("elite coverage = %v, want 0.60", cfg.Game.Insurance["elite"].CoverageRate)
	}
	if cfg.Server.AdminToken != "secret" {
		t.Errorf("AdminToken = %q, want secret", cfg.Server.AdminToken)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"House edge at 100", "CRASH_HOUSE_EDGE_PERCENT", "100"},
		{"Negative house edge", "CRASH_HOUSE_EDGE_PERCENT", "-1"},
		{"Zero min bet", "CRASH_MIN_BET", "0"},
		{"Max below min bet", "CRASH_MAX_BET", "0.5"},
		{"Zero tick interval", "CRASH_TICK_INTERVAL", "0s"},
		{"Coverage above one", "INSURANCE_BASIC_COVERAGE", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}
