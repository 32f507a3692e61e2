package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// reportedState maps "YYYY-MM-DD|signature" to the ticket id filed for it.
type reportedState map[string]string

type fileStore struct {
	filePath string
	now      Clock
	mu       sync.RWMutex
	state    reportedState
}

// NewFileStore loads the JSON state file. A missing or empty file starts fresh.
func NewFileStore(filePath string, now Clock) (Store, error) {
	s := &fileStore{filePath: filePath, now: now}
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

func (s *fileStore) load() (reportedState, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("file", s.filePath).Msg("Dedupe state file not found, starting fresh.")
			return make(reportedState), nil
		}
		return nil, fmt.Errorf("read dedupe state %s: %w", s.filePath, err)
	}
	if len(data) == 0 {
		return make(reportedState), nil
	}

	var state reportedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode dedupe state %s: %w", s.filePath, err)
	}
	if state == nil {
		state = make(reportedState)
	}
	log.Debug().Str("file", s.filePath).Int("entries", len(state)).Msg("Loaded dedupe state")
	return state, nil
}

func (s *fileStore) HasBeenReportedToday(_ context.Context, signature string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state[dayKey(s.now(), signature)]
	return ok, nil
}

func (s *fileStore) RecordReported(_ context.Context, signature, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(s.now(), signature)
	prev, had := s.state[key]
	s.state[key] = ticketID
	if err := s.save(); err != nil {
		if had {
			s.state[key] = prev
		} else {
			delete(s.state, key)
		}
		return err
	}
	return nil
}

// save writes via a temp file and rename so readers never see a partial file.
func (s *fileStore) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dedupe state: %w", err)
	}
	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dedupe state dir: %w", err)
		}
	}

	tempFilePath := s.filePath + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0o644); err != nil {
		log.Error().Err(err).Str("file", tempFilePath).Msg("Failed to write temporary dedupe state")
		return err
	}
	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		log.Error().Err(err).Str("from", tempFilePath).Str("to", s.filePath).Msg("Failed to rename dedupe state")
		_ = os.Remove(tempFilePath)
		return err
	}
	log.Debug().Str("file", s.filePath).Int("entries", len(s.state)).Msg("Saved dedupe state")
	return nil
}

func (s *fileStore) Close() error {
	return nil
}
