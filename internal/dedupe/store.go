package dedupe

import (
	"context"
	"fmt"
	"time"

	"log-triage-backend/config"

	"github.com/rs/zerolog/log"
)

const (
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Store remembers which signatures already produced a ticket on a given UTC day.
type Store interface {
	HasBeenReportedToday(ctx context.Context, signature string) (bool, error)
	RecordReported(ctx context.Context, signature, ticketID string) error
	Close() error
}

// Clock returns the current time. Replaced in tests.
type Clock func() time.Time

func dayOf(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func dayKey(now time.Time, signature string) string {
	return dayOf(now) + "|" + signature
}

// NewStore opens the backend selected by DEDUPE_BACKEND.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	backend := cfg.Dedupe.Backend
	if backend == "" {
		backend = BackendFile
	}
	log.Info().Str("backend", backend).Msg("Opening dedupe store")

	switch backend {
	case BackendFile:
		return NewFileStore(cfg.Dedupe.Path, time.Now)
	case BackendBolt:
		return NewBoltStore(cfg.Dedupe.Path, time.Now)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.Dedupe.PostgresDSN, time.Now)
	default:
		return nil, fmt.Errorf("unknown dedupe backend %q", backend)
	}
}
