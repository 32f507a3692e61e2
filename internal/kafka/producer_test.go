package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"log-triage-backend/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestReportPublisher_Store(t *testing.T) {
	w := &fakeWriter{}
	p := NewReportPublisher(w, "triage_reports")
	r := model.Report{Summary: model.Summary{TotalEvents: 3, ErrorRate: 0.667}}

	require.NoError(t, p.Store(context.Background(), "run-1", r))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("run-1"), w.msgs[0].Key)
	var decoded ReportMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 3, decoded.Report.Summary.TotalEvents)
}

func TestReportPublisher_WriteError(t *testing.T) {
	p := NewReportPublisher(&fakeWriter{err: errors.New("broker down")}, "t")
	assert.Error(t, p.Store(context.Background(), "run-1", model.Report{}))
}
