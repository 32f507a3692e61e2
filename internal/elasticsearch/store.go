package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/model"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// GroupDocument is one merged group of one run, as indexed.
type GroupDocument struct {
	RunID             string    `json:"run_id"`
	Timestamp         time.Time `json:"@timestamp"`
	Signature         string    `json:"signature"`
	Count             int       `json:"count"`
	Info              int       `json:"info"`
	Warn              int       `json:"warn"`
	Error             int       `json:"error"`
	ProbableRootCause string    `json:"probable_root_cause,omitempty"`
	Recommendation    string    `json:"recommendation,omitempty"`
	Exceptions        []string  `json:"exceptions,omitempty"`
	TotalEvents       int       `json:"total_events"`
	ErrorRate         float64   `json:"error_rate"`
	Top               bool      `json:"top"`
}

// ReportStore indexes every group of a finished report through a bulk indexer.
type ReportStore struct {
	bulkIndexer     esutil.BulkIndexer
	indexPrefix     string
	now             func() time.Time
	countSuccessful uint64
	countFailed     uint64
}

// ProvideReportStore connects with retries. It returns nil when indexing is disabled.
func ProvideReportStore(lc fx.Lifecycle, cfg *config.Config) (*ReportStore, error) {
	if !cfg.Elasticsearch.Enabled {
		log.Info().Msg("Elasticsearch report indexing disabled")
		return nil, nil
	}
	if len(cfg.Elasticsearch.Addresses) == 0 {
		log.Error().Msg("Elasticsearch addresses are not configured.")
		return nil, errors.New("elasticsearch configuration missing")
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Second * 10,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	esCfg := elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}

	var esClient *elasticsearch.Client
	operation := func() error {
		var err error
		esClient, err = elasticsearch.NewClient(esCfg)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return backoff.Permanent(err)
		}

		res, errPing := esClient.Info(esClient.Info.WithContext(context.Background()))
		if errPing != nil {
			log.Warn().Err(errPing).Msg("Attempt failed: Error during Elasticsearch Info() call (transport level)")
			return errPing
		}
		defer res.Body.Close()
		if res.IsError() {
			errMsg := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errMsg).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errMsg
		}
		log.Info().Msg("Elasticsearch client initialized and connection verified!")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Msg("Attempting to connect to Elasticsearch with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		log.Error().Err(err).Msg("Failed to connect to Elasticsearch after multiple retries")
		return nil, err
	}

	store, err := NewReportStore(esClient, cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Elasticsearch BulkIndexer...")
			return store.Close(ctx)
		},
	})
	return store, nil
}

func NewReportStore(client *elasticsearch.Client, cfg config.ElasticsearchConfig) (*ReportStore, error) {
	store := &ReportStore{
		indexPrefix: cfg.ReportIndex,
		now:         time.Now,
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        client,
		Index:         store.getIndexName(),
		NumWorkers:    cfg.BulkWorkers,
		FlushBytes:    cfg.FlushBytes,
		FlushInterval: cfg.FlushInterval,
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
		OnFlushStart: func(ctx context.Context) context.Context {
			log.Debug().Msg("BulkIndexer flush starting")
			return ctx
		},
		OnFlushEnd: func(ctx context.Context) {
			log.Debug().Msg("BulkIndexer flush ended")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating the BulkIndexer: %w", err)
	}
	store.bulkIndexer = bi
	log.Info().Str("index_prefix", cfg.ReportIndex).Msg("Elasticsearch BulkIndexer initialized")
	return store, nil
}

func (s *ReportStore) Name() string {
	return "elasticsearch"
}

// Store queues one document per group. Documents are keyed by run id and
// signature so a retried run overwrites instead of duplicating.
func (s *ReportStore) Store(ctx context.Context, runID string, r model.Report) error {
	if len(r.Groups) == 0 {
		return nil
	}

	top := make(map[string]bool, len(r.Summary.TopSignatures))
	for _, sig := range r.Summary.TopSignatures {
		top[sig] = true
	}

	now := s.now().UTC()
	index := s.getIndexName()
	var addFailed int
	for _, g := range r.Groups {
		data, err := json.Marshal(GroupDocument{
			RunID:             runID,
			Timestamp:         now,
			Signature:         g.Signature,
			Count:             g.Count,
			Info:              g.Levels.Info,
			Warn:              g.Levels.Warn,
			Error:             g.Levels.Error,
			ProbableRootCause: g.ProbableRootCause,
			Recommendation:    g.Recommendation,
			Exceptions:        g.Exceptions,
			TotalEvents:       r.Summary.TotalEvents,
			ErrorRate:         r.Summary.ErrorRate,
			Top:               top[g.Signature],
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal group document for Elasticsearch")
			addFailed++
			continue
		}

		err = s.bulkIndexer.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			Index:      index,
			DocumentID: runID + ":" + g.Signature,
			Body:       bytes.NewReader(data),
			OnSuccess: func(context.Context, esutil.BulkIndexerItem, esutil.BulkIndexerResponseItem) {
				atomic.AddUint64(&s.countSuccessful, 1)
			},
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				atomic.AddUint64(&s.countFailed, 1)
				log.Error().Err(err).Str("doc_id", item.DocumentID).Str("reason", res.Error.Reason).Msg("Failed to index group document")
			},
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
			addFailed++
		}
	}
	log.Debug().Int("count", len(r.Groups)).Str("run_id", runID).Msg("Queued group documents for Elasticsearch")

	if addFailed > 0 {
		return fmt.Errorf("%d of %d group documents could not be queued", addFailed, len(r.Groups))
	}
	return nil
}

func (s *ReportStore) Close(ctx context.Context) error {
	err := s.bulkIndexer.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error closing BulkIndexer")
	}

	stats := s.bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("added", stats.NumAdded).
		Uint64("flushed", stats.NumFlushed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Uint64("callback_successful", atomic.LoadUint64(&s.countSuccessful)).
		Uint64("callback_failed", atomic.LoadUint64(&s.countFailed)).
		Msg("Elasticsearch BulkIndexer final stats")
	return err
}

// getIndexName generates the index name, e.g. "triage-groups-2024-01-31".
func (s *ReportStore) getIndexName() string {
	return fmt.Sprintf("%s-%s", s.indexPrefix, s.now().UTC().Format("2006-01-02"))
}
