package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/game"
)

// Service is the persistence collaborator: it archives finished rounds and
// serves the public round history.
type Service interface {
	Health() map[string]string
	Close() error

	// ArchiveRound stores a settled round and its bets. Implements
	// game.Archiver.
	ArchiveRound(ctx context.Context, round *game.Round, bets []*game.Bet) error
	// RecentRounds returns the newest archived rounds, most recent first.
	RecentRounds(ctx context.Context, limit int) ([]ArchivedRound, error)
}

// ArchivedRound is the public record of a finished round: seeds revealed,
// crash point known, ready for independent verification.
type ArchivedRound struct {
	RoundID        string    `json:"round_id"`
	ServerSeed     string    `json:"server_seed"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	Nonce          int       `json:"nonce"`
	CrashPoint     float64   `json:"crash_point"`
	StartedAt      time.Time `json:"started_at"`
	CrashedAt      time.Time `json:"crashed_at"`
}

type service struct {
	db *sql.DB
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = os.Getenv("BLUEPRINT_DB_SCHEMA")
	dbInstance *service
)

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s", username, password, host, port, database, schema)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatal(err)
	}
	dbInstance = &service{
		db: db,
	}
	return dbInstance
}

// Health returns the connection status plus pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	return stats
}

// ArchiveRound inserts the round and all of its bets in a single
// transaction: a round never appears without its bets.
func (s *service) ArchiveRound(ctx context.Context, round *game.Round, bets []*game.Bet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (id, server_seed, server_seed_hash, client_seed, nonce, crash_point, started_at, crashed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		round.ID, round.ServerSeed, round.ServerSeedHash, round.ClientSeed,
		round.Nonce, round.CrashPoint, nullTime(round.StartedAt), nullTime(round.CrashedAt),
	)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", round.ID, err)
	}

	for _, bet := range bets {
		var insuranceType sql.NullString
		var premium, coverage sql.NullFloat64
		if bet.Insurance != nil {
			insuranceType = sql.NullString{String: string(bet.Insurance.Type), Valid: true}
			premium = sql.NullFloat64{Float64: bet.Insurance.Premium, Valid: true}
			coverage = sql.NullFloat64{Float64: bet.Insurance.CoverageAmount, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bets (id, round_id, user_id, amount, auto_cashout, insurance_type, premium, coverage,
			                  cashout_multiplier, status, placed_at, resolved_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			bet.ID, bet.RoundID, bet.UserID, bet.Amount, bet.AutoCashout,
			insuranceType, premium, coverage,
			bet.CashoutMultiplier, string(bet.Status), bet.PlacedAt, nullTime(bet.ResolvedAt),
		)
		if err != nil {
			return fmt.Errorf("insert bet %s: %w", bet.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

func (s *service) RecentRounds(ctx context.Context, limit int) ([]ArchivedRound, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, server_seed, server_seed_hash, client_seed, nonce, crash_point,
		       COALESCE(started_at, 'epoch'::timestamptz), COALESCE(crashed_at, 'epoch'::timestamptz)
		FROM rounds
		ORDER BY crashed_at DESC NULLS LAST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent rounds: %w", err)
	}
	defer rows.Close()

	var out []ArchivedRound
	for rows.Next() {
		var r ArchivedRound
		if err := rows.Scan(&r.RoundID, &r.ServerSeed, &r.ServerSeedHash, &r.ClientSeed,
			&r.Nonce, &r.CrashPoint, &r.StartedAt, &r.CrashedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *service) Close() error {
	log.Printf("[DB] Disconnected from database: %s", database)
	return s.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
