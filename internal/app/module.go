package app

import (
	"context"

	"log-triage-backend/config"
	"log-triage-backend/internal/aggregator"
	"log-triage-backend/internal/annotation"
	"log-triage-backend/internal/dedupe"
	"log-triage-backend/internal/elasticsearch"
	"log-triage-backend/internal/fallback"
	"log-triage-backend/internal/jira"
	"log-triage-backend/internal/kafka"
	"log-triage-backend/internal/metrics"
	"log-triage-backend/internal/parser"
	"log-triage-backend/internal/pipeline"
	"log-triage-backend/internal/report"
	"log-triage-backend/internal/service"
	"log-triage-backend/internal/signature"
	"log-triage-backend/internal/slack"
	"log-triage-backend/internal/store"
	"log-triage-backend/internal/summary"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// Module provides everything a triage run needs. *config.Config must be
// supplied by the caller.
var Module = fx.Options(
	// Core engine
	fx.Provide(
		parser.NewSimpleLogParser,
		NewNormalizer,
		NewAggregator,
		NewMerger,
		NewCalculator,
		fallback.NewExceptionExtractor,
		NewReportWriter,
	),
	// Collaborators
	fx.Provide(
		service.NewLLMService,
		service.NewAnnotationService,
		NewTicketCreator,
		NewNotifier,
		NewDedupeStore,
		kafka.ProvideReportPublisher,
		elasticsearch.ProvideReportStore,
		NewReportSinks,
		metrics.NewRecorder,
	),
	// Orchestration
	fx.Provide(
		NewPipeline,
		store.NewInMemoryRunStore,
		service.NewTriageService,
	),
)

func NewNormalizer(cfg *config.Config) *signature.Normalizer {
	return signature.NewNormalizer(cfg.Triage.SignatureTokens)
}

func NewAggregator(cfg *config.Config, n *signature.Normalizer) *aggregator.Aggregator {
	return aggregator.New(n, cfg.Triage.MaxExamples)
}

func NewMerger(cfg *config.Config) *annotation.Merger {
	return annotation.NewMerger(cfg.Triage.AnnotationMaxChars)
}

func NewCalculator(cfg *config.Config) *summary.Calculator {
	return summary.NewCalculator(cfg.Triage.TopSignatures)
}

func NewReportWriter(cfg *config.Config) *report.Writer {
	return report.NewWriter(cfg.Triage.OutputDir)
}

func NewTicketCreator(cfg *config.Config) jira.TicketCreator {
	return jira.NewClient(cfg)
}

func NewNotifier(cfg *config.Config) slack.Notifier {
	return slack.NewClient(cfg)
}

func NewDedupeStore(lc fx.Lifecycle, cfg *config.Config) (dedupe.Store, error) {
	s, err := dedupe.NewStore(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing dedupe store")
			return s.Close()
		},
	})
	return s, nil
}

// NewReportSinks collects the optional report sinks that are enabled.
func NewReportSinks(publisher *kafka.ReportPublisher, esStore *elasticsearch.ReportStore) []pipeline.ReportSink {
	var sinks []pipeline.ReportSink
	if publisher != nil {
		sinks = append(sinks, publisher)
	}
	if esStore != nil {
		sinks = append(sinks, esStore)
	}
	return sinks
}

type PipelineParams struct {
	fx.In

	Config     *config.Config
	Parser     parser.LogParser
	Aggregator *aggregator.Aggregator
	Annotator  service.AnnotationService
	Merger     *annotation.Merger
	Calculator *summary.Calculator
	Extractor  fallback.Extractor
	Writer     *report.Writer
	Sinks      []pipeline.ReportSink
	Tickets    jira.TicketCreator
	Dedupe     dedupe.Store
	Notifier   slack.Notifier
	Metrics    *metrics.Recorder
}

func NewPipeline(p PipelineParams) *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Parser:     p.Parser,
		Aggregator: p.Aggregator,
		Annotator:  p.Annotator,
		Merger:     p.Merger,
		Calculator: p.Calculator,
		Extractor:  p.Extractor,
		Writer:     p.Writer,
		Sinks:      p.Sinks,
		Tickets:    p.Tickets,
		Dedupe:     p.Dedupe,
		Notifier:   p.Notifier,
		Metrics:    p.Metrics,
	}, pipeline.Options{
		AbortOnAnnotationFailure: p.Config.Triage.AbortOnLLMFailure,
		IssueType:                p.Config.Jira.IssueType,
	})
}
