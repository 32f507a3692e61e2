package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	cfg := &config.Config{}
	cfg.Jira.BaseURL = url + "/"
	cfg.Jira.ProjectKey = "OPS"
	cfg.Jira.IssueType = "Bug"
	cfg.Jira.Bearer = "tok"
	return NewClient(cfg)
}

func TestCreateTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body createIssueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "OPS", body.Fields.Project.Key)
		assert.Equal(t, "Bug", body.Fields.IssueType.Name)
		assert.Equal(t, "[Auto] db timeout (2 errors)", body.Fields.Summary)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"key":"OPS-7"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	id, err := c.CreateTicket(context.Background(), dto.TicketRequest{Summary: "[Auto] db timeout (2 errors)"})

	require.NoError(t, err)
	assert.Equal(t, "OPS-7", id)
	assert.Equal(t, srv.URL+"/browse/OPS-7", c.BrowseURL(id))
}

func TestCreateTicket_MissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).CreateTicket(context.Background(), dto.TicketRequest{Summary: "s"})

	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", id)
}

func TestCreateTicket_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("no"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateTicket(context.Background(), dto.TicketRequest{Summary: "s"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestBuildTicketRequest(t *testing.T) {
	g := model.Group{
		Signature: "db timeout",
		Levels:    model.LevelCounts{Error: 2, Warn: 1},
		Examples:  []string{"line one", "line two"},
	}

	req := BuildTicketRequest(g, 10, "Bug")

	assert.Equal(t, "[Auto] db timeout (2 errors)", req.Summary)
	assert.Equal(t, "Bug", req.Category)
	assert.Equal(t, "h2. Auto Log Analysis\n\nSignature: db timeout\nErrors: 2 of 10\nExamples:\nline one\nline two", req.Description)
}
