package scheduler

import (
	"context"
	"errors"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// NewParser accepts an optional seconds field plus descriptors like @hourly.
func NewParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// NewScheduler runs the configured inputs on TRIAGE_SCHEDULE. It returns nil
// when no schedule is configured.
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, triageSvc service.TriageService) (*cron.Cron, error) {
	schedule := cfg.Triage.Schedule
	if schedule == "" {
		log.Info().Msg("No triage schedule configured, scheduler disabled")
		return nil, nil
	}

	c := cron.New(cron.WithParser(NewParser()))
	if _, err := c.AddFunc(schedule, func() { runScheduled(triageSvc) }); err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Failed to add cron job")
		return nil, err
	}
	log.Info().Str("schedule", schedule).Msg("Scheduled triage job")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}

func runScheduled(triageSvc service.TriageService) {
	resp, err := triageSvc.Run(context.Background(), dto.TriageRunRequest{})
	if errors.Is(err, service.ErrRunInProgress) {
		log.Warn().Msg("Previous triage run still active, skipping scheduled run")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Error during scheduled triage run")
		return
	}
	log.Info().Str("run_id", resp.RunID).Int("tickets", len(resp.Tickets)).Msg("Scheduled triage run finished")
}
