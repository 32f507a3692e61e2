package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func llmConfig(provider, baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.LLM.Provider = provider
	cfg.LLM.BaseURL = baseURL
	cfg.LLM.Model = "test-model"
	cfg.LLM.APIKey = "key"
	cfg.LLM.Timeout = 5 * time.Second
	return cfg
}

var chatMessages = []dto.ChatMessage{
	{Role: dto.RoleSystem, Content: "be terse"},
	{Role: dto.RoleUser, Content: "hello"},
}

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Len(t, req.Messages, 2)
		w.Write([]byte(`{"message":{"role":"assistant","content":"{\"groups\":[]}"}}`))
	}))
	defer srv.Close()

	llm, err := NewLLMService(llmConfig(ProviderOllama, srv.URL))
	require.NoError(t, err)

	out, err := llm.Chat(context.Background(), chatMessages)
	require.NoError(t, err)
	assert.Equal(t, `{"groups":[]}`, out)
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
	}))
	defer srv.Close()

	llm, err := NewLLMService(llmConfig(ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	out, err := llm.Chat(context.Background(), chatMessages)
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestGeminiChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		var req GeminiRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be terse", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says"}]}}]}`))
	}))
	defer srv.Close()

	llm, err := NewLLMService(llmConfig(ProviderGemini, srv.URL))
	require.NoError(t, err)

	out, err := llm.Chat(context.Background(), chatMessages)
	require.NoError(t, err)
	assert.Equal(t, "gemini says", out)
}

func TestGeminiChat_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	llm, err := NewLLMService(llmConfig(ProviderGemini, srv.URL))
	require.NoError(t, err)

	_, err = llm.Chat(context.Background(), chatMessages)
	assert.Error(t, err)
}

func TestNewLLMService_UnknownProvider(t *testing.T) {
	_, err := NewLLMService(llmConfig("bard", ""))
	assert.Error(t, err)
}
