package dedupe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log-triage-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func backends(t *testing.T, clock *fakeClock) map[string]func() Store {
	dir := t.TempDir()
	return map[string]func() Store{
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(dir, "state", "created_bugs.json"), clock.Now)
			require.NoError(t, err)
			return s
		},
		"bolt": func() Store {
			s, err := NewBoltStore(filepath.Join(dir, "state", "created_bugs.db"), clock.Now)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SameDayDedupe(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	for name, open := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			seen, err := s.HasBeenReportedToday(ctx, "db timeout")
			require.NoError(t, err)
			assert.False(t, seen)

			require.NoError(t, s.RecordReported(ctx, "db timeout", "OPS-1"))

			seen, err = s.HasBeenReportedToday(ctx, "db timeout")
			require.NoError(t, err)
			assert.True(t, seen)

			seen, err = s.HasBeenReportedToday(ctx, "other sig")
			require.NoError(t, err)
			assert.False(t, seen)
		})
	}
}

func TestStore_NextDayReportsAgain(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)}

	for name, open := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			clock.t = time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
			s := open()
			defer s.Close()

			require.NoError(t, s.RecordReported(ctx, "sig", "OPS-2"))
			clock.t = clock.t.Add(2 * time.Minute)

			seen, err := s.HasBeenReportedToday(ctx, "sig")
			require.NoError(t, err)
			assert.False(t, seen)
		})
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}

	for name, open := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			s := open()
			require.NoError(t, s.RecordReported(ctx, "persisted", "OPS-3"))
			require.NoError(t, s.Close())

			reopened := open()
			defer reopened.Close()
			seen, err := reopened.HasBeenReportedToday(ctx, "persisted")
			require.NoError(t, err)
			assert.True(t, seen)
		})
	}
}

func TestFileStore_Format(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("X", 5*3600))}
	path := filepath.Join(t.TempDir(), "created_bugs.json")

	s, err := NewFileStore(path, clock.Now)
	require.NoError(t, err)
	require.NoError(t, s.RecordReported(context.Background(), "db timeout", "OPS-9"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var state map[string]string
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, map[string]string{"2024-03-01|db timeout": "OPS-9"}, state)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "created_bugs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path, time.Now)
	assert.Error(t, err)
}

func TestNewStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dedupe.Backend = "redis"

	_, err := NewStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestReportDate(t *testing.T) {
	local := time.Date(2024, 3, 2, 1, 30, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), reportDate(local))
	assert.Equal(t, "2024-03-01|sig", dayKey(local, "sig"))
}
