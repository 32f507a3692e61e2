package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/report"
	"log-triage-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Triage.SignatureTokens = 4
	cfg.Triage.MaxExamples = 3
	cfg.Triage.TopSignatures = 3
	cfg.Triage.LLMTop = 0
	cfg.Triage.OutputDir = filepath.Join(dir, "out")
	cfg.Triage.DryRun = true
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Timeout = time.Second
	cfg.Dedupe.Backend = "bolt"
	cfg.Dedupe.Path = filepath.Join(dir, "dedupe.db")
	return cfg
}

func TestModule_EndToEndDryRun(t *testing.T) {
	cfg := testConfig(t)
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte(
		"2024-01-01 10:00:00 [ERROR] Connection refused to /srv/db/socket123\n"+
			"2024-01-01 10:00:01 [ERROR] Connection refused to /srv/db/socket456\n"+
			"2024-01-01 10:00:02 [INFO] Startup complete\n"), 0o644))
	cfg.Triage.Inputs = []string{logPath}

	var svc service.TriageService
	app := fxtest.New(t, fx.Supply(cfg), Module, fx.Populate(&svc), fx.NopLogger)
	app.RequireStart()
	defer app.RequireStop()

	resp, err := svc.Run(context.Background(), dto.TriageRunRequest{})
	require.NoError(t, err)

	assert.True(t, resp.DryRun)
	assert.Equal(t, 3, resp.Report.Summary.TotalEvents)
	assert.Equal(t, 0.667, resp.Report.Summary.ErrorRate)
	assert.Empty(t, resp.Tickets)
	assert.FileExists(t, filepath.Join(cfg.Triage.OutputDir, report.FindingsFile))
}
