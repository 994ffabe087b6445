package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Game holds the round-engine parameters. The scheduler captures a copy at
// round creation, so changing the environment mid-round only affects the
// next round.
type Game struct {
	HouseEdgePercent float64
	MaxMultiplier    float64
	MinBet           float64
	MaxBet           float64
	WaitingDuration  time.Duration
	CrashedDuration  time.Duration
	ResultsDuration  time.Duration
	TickInterval     time.Duration
	Insurance        map[string]InsuranceRate
}

// InsuranceRate prices one policy tier.
type InsuranceRate struct {
	PremiumRate  float64
	CoverageRate float64
}

type Server struct {
	Port       int
	AdminToken string
}

type Config struct {
	Game   Game
	Server Server
}

func Load() (*Config, error) {
	cfg := &Config{
		Game: Game{
			HouseEdgePercent: getEnvAsFloat("CRASH_HOUSE_EDGE_PERCENT", 1.0),
			MaxMultiplier:    getEnvAsFloat("CRASH_MAX_MULTIPLIER", 1000000.0),
			MinBet:           getEnvAsFloat("CRASH_MIN_BET", 1.0),
			MaxBet:           getEnvAsFloat("CRASH_MAX_BET", 10000.0),
			WaitingDuration:  getEnvAsDuration("CRASH_WAITING_DURATION", 5*time.Second),
			CrashedDuration:  getEnvAsDuration("CRASH_CRASHED_DURATION", 3*time.Second),
			ResultsDuration:  getEnvAsDuration("CRASH_RESULTS_DURATION", 5*time.Second),
			TickInterval:     getEnvAsDuration("CRASH_TICK_INTERVAL", 100*time.Millisecond),
			Insurance: map[string]InsuranceRate{
				"basic":   {PremiumRate: getEnvAsFloat("INSURANCE_BASIC_PREMIUM", 0.05), CoverageRate: getEnvAsFloat("INSURANCE_BASIC_COVERAGE", 0.25)},
				"premium": {PremiumRate: getEnvAsFloat("INSURANCE_PREMIUM_PREMIUM", 0.10), CoverageRate: getEnvAsFloat("INSURANCE_PREMIUM_COVERAGE", 0.40)},
				"elite":   {PremiumRate: getEnvAsFloat("INSURANCE_ELITE_PREMIUM", 0.15), CoverageRate: getEnvAsFloat("INSURANCE_ELITE_COVERAGE", 0.50)},
			},
		},
		Server: Server{
			Port:       getEnvAsInt("PORT", 8080),
			AdminToken: getEnv("ADMIN_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	g := c.Game
	if g.HouseEdgePercent < 0 || g.HouseEdgePercent >= 100 {
		return fmt.Errorf("config: house edge must be in [0, 100), got %.2f", g.HouseEdgePercent)
	}
	if g.MinBet <= 0 || g.MaxBet < g.MinBet {
		return fmt.Errorf("config: invalid bet bounds [%.2f, %.2f]", g.MinBet, g.MaxBet)
	}
	if g.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive")
	}
	for name, rate := range g.Insurance {
		if rate.PremiumRate < 0 || rate.CoverageRate < 0 || rate.CoverageRate > 1 {
			return fmt.Errorf("config: invalid insurance rates for %q", name)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
