package service

import (
	"context"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/annotation"
	"log-triage-backend/internal/fallback"
	"log-triage-backend/internal/model"
	"log-triage-backend/internal/report"

	"github.com/rs/zerolog/log"
)

// AnnotationService asks the text-generation backend for narrative text on the
// top groups. It never fails: every outcome is folded into an AnnotationResult.
type AnnotationService interface {
	Annotate(ctx context.Context, groups []model.Group, totalEvents int) model.AnnotationResult
}

type annotationService struct {
	llm       LLMService
	extractor fallback.Extractor
	writer    *report.Writer
	topN      int
	timeout   time.Duration
}

func NewAnnotationService(cfg *config.Config, llm LLMService, extractor fallback.Extractor, writer *report.Writer) AnnotationService {
	return &annotationService{
		llm:       llm,
		extractor: extractor,
		writer:    writer,
		topN:      cfg.Triage.LLMTop,
		timeout:   cfg.LLM.Timeout,
	}
}

func (s *annotationService) Annotate(ctx context.Context, groups []model.Group, totalEvents int) model.AnnotationResult {
	if len(groups) == 0 || s.topN == 0 {
		return model.AnnotationsOk(nil, "")
	}

	messages, err := annotation.BuildMessages(groups, totalEvents, s.topN, s.extractor)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build annotation request")
		return model.AnnotationsUnavailable(err)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.llm.Chat(callCtx, messages)
	if err != nil {
		log.Warn().Err(err).Msg("Annotation unavailable, continuing with local aggregation")
		return model.AnnotationsUnavailable(err)
	}

	result := annotation.ParseFindings(raw)
	switch result.Status {
	case model.AnnotationMalformed:
		log.Warn().Err(result.Err).Msg("Annotation output malformed, continuing with local aggregation")
		if s.writer != nil {
			if err := s.writer.WriteLastRaw(raw); err != nil {
				log.Error().Err(err).Msg("Failed to persist raw annotation output")
			}
		}
	case model.AnnotationOk:
		log.Info().Int("annotations", len(result.Annotations)).Msg("Annotation received")
	}
	return result
}
