package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"log-triage-backend/config"
	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReportMessage is the payload published for every finished run.
type ReportMessage struct {
	RunID  string       `json:"run_id"`
	Report model.Report `json:"report"`
}

// ReportPublisher publishes final reports keyed by run id.
type ReportPublisher struct {
	writer MessageWriter
	topic  string
}

func NewReportPublisher(writer MessageWriter, topic string) *ReportPublisher {
	return &ReportPublisher{writer: writer, topic: topic}
}

// ProvideReportPublisher returns nil when publishing is disabled.
func ProvideReportPublisher(lc fx.Lifecycle, cfg *config.Config) (*ReportPublisher, error) {
	if !cfg.Kafka.Enabled {
		log.Info().Msg("Kafka report publishing disabled")
		return nil, nil
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.ReportTopic == "" {
		log.Error().Msg("Kafka brokers or report topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.ReportTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	p := NewReportPublisher(writer, cfg.Kafka.ReportTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka report publisher")
			return p.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.ReportTopic).Msg("Kafka report publisher initialized")
	return p, nil
}

func (p *ReportPublisher) Name() string {
	return "kafka"
}

func (p *ReportPublisher) Store(ctx context.Context, runID string, r model.Report) error {
	value, err := json.Marshal(ReportMessage{RunID: runID, Report: r})
	if err != nil {
		return fmt.Errorf("failed to marshal report for kafka: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(runID), Value: value})
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to write report to Kafka")
		return err
	}
	log.Debug().Str("run_id", runID).Str("topic", p.topic).Msg("Published report to Kafka")
	return nil
}

func (p *ReportPublisher) Close() error {
	return p.writer.Close()
}
