package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const reportedTableName = "reported_signatures"

type postgresStore struct {
	pool *pgxpool.Pool
	now  Clock
}

func NewPostgresStore(ctx context.Context, dsn string, now Clock) (Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dedupe postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dedupe postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping dedupe postgres: %w", err)
	}

	store := &postgresStore{pool: pool, now: now}
	if err := store.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("Dedupe postgres pool created and verified.")
	return store, nil
}

func (s *postgresStore) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    day         DATE        NOT NULL,
    signature   TEXT        NOT NULL,
    ticket_id   TEXT        NOT NULL,
    reported_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (day, signature)
);`, reportedTableName)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed creating table %s: %w", reportedTableName, err)
	}
	return nil
}

func (s *postgresStore) HasBeenReportedToday(ctx context.Context, signature string) (bool, error) {
	query := fmt.Sprintf(`SELECT ticket_id FROM %s WHERE day = $1::date AND signature = $2`, reportedTableName)
	var ticketID string
	err := s.pool.QueryRow(ctx, query, reportDate(s.now()), signature).Scan(&ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query reported signature: %w", err)
	}
	return true, nil
}

func (s *postgresStore) RecordReported(ctx context.Context, signature, ticketID string) error {
	query := fmt.Sprintf(`
INSERT INTO %s (day, signature, ticket_id) VALUES ($1::date, $2, $3)
ON CONFLICT (day, signature) DO UPDATE SET ticket_id = EXCLUDED.ticket_id, reported_at = NOW()`, reportedTableName)
	if _, err := s.pool.Exec(ctx, query, reportDate(s.now()), signature, ticketID); err != nil {
		return fmt.Errorf("record reported signature: %w", err)
	}
	return nil
}

// reportDate is midnight UTC of the day now falls on.
func reportDate(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
