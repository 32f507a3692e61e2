package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bulkServer struct {
	mu   sync.Mutex
	docs []GroupDocument
	ids  []string
}

func (b *bulkServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/_bulk") {
			w.Write([]byte(`{"version":{"number":"8.18.0"}}`))
			return
		}

		var items []string
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var meta map[string]map[string]string
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &meta))
			require.True(t, scanner.Scan())
			var doc GroupDocument
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))

			b.mu.Lock()
			b.docs = append(b.docs, doc)
			b.ids = append(b.ids, meta["index"]["_id"])
			b.mu.Unlock()
			items = append(items, fmt.Sprintf(`{"index":{"_index":%q,"_id":%q,"status":201}}`, meta["index"]["_index"], meta["index"]["_id"]))
		}
		fmt.Fprintf(w, `{"took":1,"errors":false,"items":[%s]}`, strings.Join(items, ","))
	}
}

func TestReportStore_IndexesOneDocPerGroup(t *testing.T) {
	srv := &bulkServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{ts.URL}})
	require.NoError(t, err)

	store, err := NewReportStore(client, config.ElasticsearchConfig{
		ReportIndex:   "triage-groups",
		BulkWorkers:   1,
		FlushBytes:    1 << 20,
		FlushInterval: time.Hour,
	})
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC) }

	report := model.Report{
		Groups: []model.Group{
			{Signature: "db timeout", Count: 2, Levels: model.LevelCounts{Error: 2}},
			{Signature: "startup complete", Count: 1, Levels: model.LevelCounts{Info: 1}},
		},
		Summary: model.Summary{TotalEvents: 3, ErrorRate: 0.667, TopSignatures: []string{"db timeout"}},
	}

	require.NoError(t, store.Store(context.Background(), "run-1", report))
	require.NoError(t, store.Close(context.Background()))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.docs, 2)
	assert.Equal(t, []string{"run-1:db timeout", "run-1:startup complete"}, srv.ids)
	assert.Equal(t, "db timeout", srv.docs[0].Signature)
	assert.True(t, srv.docs[0].Top)
	assert.False(t, srv.docs[1].Top)
	assert.Equal(t, 3, srv.docs[1].TotalEvents)
	assert.Equal(t, "triage-groups-2024-01-31", store.getIndexName())
}
