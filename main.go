package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"log-triage-backend/config"
	"log-triage-backend/internal/app"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/pipeline"
	"log-triage-backend/internal/service"
)

// flagBindings maps CLI flags onto the env keys read by config.NewConfig.
var flagBindings = map[string]string{
	"llm-top":       "TRIAGE_LLM_TOP",
	"timeout":       "LLM_TIMEOUT",
	"dry-run":       "TRIAGE_DRY_RUN",
	"provider":      "LLM_PROVIDER",
	"model":         "LLM_MODEL",
	"output-dir":    "TRIAGE_OUTPUT_DIR",
	"dedupe":        "DEDUPE_BACKEND",
	"abort-on-llm":  "TRIAGE_ABORT_ON_LLM_FAILURE",
	"log-level":     "LOG_LEVEL",
	"pretty":        "LOG_PRETTY",
	"signature-len": "TRIAGE_SIGNATURE_TOKENS",
}

func main() {
	fs := pflag.NewFlagSet("log-triage", pflag.ExitOnError)
	inputs := fs.StringArrayP("input", "i", nil, "log file or directory to analyze (repeatable)")
	fs.Int("llm-top", 3, "number of groups sent to the annotator, -1 for all")
	fs.Duration("timeout", 60*time.Second, "annotator call timeout")
	fs.Bool("dry-run", false, "skip ticket filing and notification")
	fs.String("provider", "ollama", "annotator backend: ollama, openai or gemini")
	fs.String("model", "mistral:latest", "annotator model name")
	fs.String("output-dir", "./outputs/log_analyzer", "directory for findings, summary and groups outputs")
	fs.String("dedupe", "file", "dedupe backend: file, bolt or postgres")
	fs.Bool("abort-on-llm", false, "fail the run when the annotator is unavailable or malformed")
	fs.String("log-level", "info", "log level")
	fs.Bool("pretty", false, "human friendly console logs")
	fs.Int("signature-len", 4, "tokens kept per signature")
	_ = fs.Parse(os.Args[1:])

	if err := bindFlags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if requested := append(*inputs, fs.Args()...); len(requested) > 0 {
		cfg.Triage.Inputs = requested
	}
	config.SetupLogging(cfg.Server)

	os.Exit(run(cfg))
}

func bindFlags(fs *pflag.FlagSet) error {
	for flag, key := range flagBindings {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(cfg *config.Config) int {
	var triageSvc service.TriageService
	triageApp := fx.New(
		fx.Supply(cfg),
		app.Module,
		fx.Populate(&triageSvc),
		fx.NopLogger,
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()
	if err := triageApp.Start(startCtx); err != nil {
		log.Error().Err(err).Msg("Failed to start triage")
		return 1
	}
	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelStop()
		if err := triageApp.Stop(stopCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	resp, err := triageSvc.Run(context.Background(), dto.TriageRunRequest{})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoInputFiles) {
			log.Error().Err(err).Msg("Nothing to analyze")
			return 2
		}
		log.Error().Err(err).Msg("Triage run failed")
		return 1
	}

	fmt.Println(resp.Report.Summary.ShortSummary)
	for _, t := range resp.Tickets {
		fmt.Printf("ticket %s for %q: %s\n", t.ID, t.Signature, t.URL)
	}
	for _, f := range resp.TicketFailures {
		fmt.Printf("ticket failed for %q: %s\n", f.Signature, f.Error)
	}
	fmt.Printf("Wrote outputs to %s\n", cfg.Triage.OutputDir)
	return 0
}
