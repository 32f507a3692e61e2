package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"log-triage-backend/internal/dto"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound = errors.New("triage run not found")
)

// RunStore keeps triage runs in memory for the API. A created run stays
// "running" until SaveRun records its final state.
type RunStore interface {
	CreateRun(ctx context.Context) (string, error)
	SaveRun(ctx context.Context, run dto.TriageRunResponse) error
	GetRun(ctx context.Context, runID string) (dto.TriageRunResponse, error)
	LatestRun(ctx context.Context) (dto.TriageRunResponse, error)
}

type inMemoryRunStore struct {
	runs   map[string]dto.TriageRunResponse // map[runId]run
	latest string
	mu     sync.RWMutex
}

func NewInMemoryRunStore() RunStore {
	return &inMemoryRunStore{
		runs: make(map[string]dto.TriageRunResponse),
	}
}

func (s *inMemoryRunStore) CreateRun(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID := uuid.NewString()
	s.runs[newID] = dto.TriageRunResponse{RunID: newID, Status: dto.RunStatusRunning, StartedAt: time.Now().UTC()}
	return newID, nil
}

func (s *inMemoryRunStore) SaveRun(ctx context.Context, run dto.TriageRunResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.RunID]; !ok {
		return ErrRunNotFound
	}
	s.runs[run.RunID] = run
	s.latest = run.RunID
	return nil
}

func (s *inMemoryRunStore) GetRun(ctx context.Context, runID string) (dto.TriageRunResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if run, ok := s.runs[runID]; ok {
		return run, nil
	}
	return dto.TriageRunResponse{}, ErrRunNotFound
}

func (s *inMemoryRunStore) LatestRun(ctx context.Context) (dto.TriageRunResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == "" {
		return dto.TriageRunResponse{}, ErrRunNotFound
	}
	return s.runs[s.latest], nil
}
