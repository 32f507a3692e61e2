package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/metrics"
	"log-triage-backend/internal/pipeline"
	"log-triage-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// ErrRunInProgress is returned when a run is requested while another one is active.
var ErrRunInProgress = errors.New("a triage run is already in progress")

type TriageService interface {
	Run(ctx context.Context, req dto.TriageRunRequest) (dto.TriageRunResponse, error)
	GetRun(ctx context.Context, runID string) (dto.TriageRunResponse, error)
	LatestRun(ctx context.Context) (dto.TriageRunResponse, error)
}

type triageService struct {
	pipeline    *pipeline.Pipeline
	runs        store.RunStore
	metrics     *metrics.Recorder
	cfg         *config.TriageConfig
	processLock sync.Mutex
}

func NewTriageService(cfg *config.Config, p *pipeline.Pipeline, runs store.RunStore, recorder *metrics.Recorder) TriageService {
	return &triageService{
		pipeline: p,
		runs:     runs,
		metrics:  recorder,
		cfg:      &cfg.Triage,
	}
}

// Run executes one triage run. Inputs default to the configured ones, and
// DryRun is honoured when either the request or the config asks for it.
func (s *triageService) Run(ctx context.Context, req dto.TriageRunRequest) (dto.TriageRunResponse, error) {
	if !s.processLock.TryLock() {
		log.Warn().Msg("Triage run already in progress, rejecting request.")
		return dto.TriageRunResponse{}, ErrRunInProgress
	}
	defer s.processLock.Unlock()

	inputs := req.Inputs
	if len(inputs) == 0 {
		inputs = s.cfg.Inputs
	}
	dryRun := req.DryRun || s.cfg.DryRun

	runID, err := s.runs.CreateRun(ctx)
	if err != nil {
		return dto.TriageRunResponse{}, fmt.Errorf("failed to create run: %w", err)
	}

	log.Info().Str("run_id", runID).Strs("inputs", inputs).Bool("dry_run", dryRun).Msg("Starting triage run...")
	startTime := time.Now()

	state, runErr := s.pipeline.Run(ctx, pipeline.State{RunID: runID, Inputs: inputs, DryRun: dryRun})

	outcome := "ok"
	if runErr != nil {
		outcome = "failed"
	}
	duration := time.Since(startTime)
	s.metrics.RunFinished(outcome, duration.Seconds())
	if runErr != nil {
		failed := dto.TriageRunResponse{
			RunID:      runID,
			Status:     dto.RunStatusFailed,
			Error:      runErr.Error(),
			StartedAt:  startTime.UTC(),
			FinishedAt: time.Now().UTC(),
			Inputs:     inputs,
			Tickets:    []dto.CreatedTicket{},
			DryRun:     dryRun,
		}
		if err := s.runs.SaveRun(ctx, failed); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("Failed to save failed run")
		}
		return dto.TriageRunResponse{}, runErr
	}

	resp := dto.TriageRunResponse{
		RunID:            runID,
		Status:           dto.RunStatusSucceeded,
		StartedAt:        startTime.UTC(),
		FinishedAt:       time.Now().UTC(),
		Inputs:           state.Files,
		LinesRead:        state.LinesRead,
		EventsParsed:     len(state.Events),
		AnnotationStatus: state.Annotation.Status.String(),
		Report:           state.Report,
		Tickets:          state.Tickets,
		SkippedToday:     state.SkippedToday,
		TicketFailures:   state.TicketFailures,
		Notified:         state.Notified,
		DryRun:           dryRun,
	}
	if resp.Tickets == nil {
		resp.Tickets = []dto.CreatedTicket{}
	}
	if err := s.runs.SaveRun(ctx, resp); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to save run")
	}

	log.Info().
		Str("run_id", runID).
		Int("lines_read", resp.LinesRead).
		Int("events", resp.EventsParsed).
		Int("groups", len(resp.Report.Groups)).
		Int("tickets", len(resp.Tickets)).
		Dur("duration", duration).
		Msg("Finished triage run.")
	return resp, nil
}

func (s *triageService) GetRun(ctx context.Context, runID string) (dto.TriageRunResponse, error) {
	return s.runs.GetRun(ctx, runID)
}

func (s *triageService) LatestRun(ctx context.Context) (dto.TriageRunResponse, error) {
	return s.runs.LatestRun(ctx)
}
