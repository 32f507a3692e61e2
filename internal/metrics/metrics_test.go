package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.EventParsed("ERROR")
	r.EventParsed("ERROR")
	r.EventParsed("INFO")
	r.Ticket("created")
	r.Ticket("deduped")
	r.LinesDropped(4)
	r.Groups(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("INFO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tickets.WithLabelValues("created")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.linesDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.groups))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.EventParsed("INFO")
		r.RunFinished("ok", 1)
		r.Annotation("ok")
		r.Notification("sent")
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.RunFinished("ok", 0.2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `log_triage_runs_total{outcome="ok"} 1`)
}
