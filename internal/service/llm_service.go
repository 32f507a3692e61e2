package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/httpclient"

	"github.com/rs/zerolog/log"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// LLMService sends role-tagged messages to a text-generation backend and
// returns the raw reply text, which may or may not be valid JSON.
type LLMService interface {
	Chat(ctx context.Context, messages []dto.ChatMessage) (string, error)
}

func NewLLMService(cfg *config.Config) (LLMService, error) {
	switch cfg.LLM.Provider {
	case ProviderGemini:
		return newGeminiLLMService(cfg), nil
	case ProviderOpenAI:
		return newOpenAILLMService(cfg), nil
	case ProviderOllama, "":
		return newOllamaLLMService(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func baseURLOr(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}

// --- Gemini ---

type GeminiPart struct {
	Text string `json:"text"`
}
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}
type GeminiRequestBody struct {
	SystemInstruction *GeminiContent  `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent `json:"contents"`
	GenerationConfig  map[string]any  `json:"generationConfig,omitempty"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

type geminiLLMService struct {
	client  *httpclient.Client
	apiKey  string
	modelID string
}

func newGeminiLLMService(cfg *config.Config) *geminiLLMService {
	model := cfg.LLM.Model
	if model == "" || strings.Contains(model, ":") {
		model = "gemini-1.5-flash-latest"
	}
	return &geminiLLMService{
		client:  httpclient.New(baseURLOr(cfg.LLM.BaseURL, "https://generativelanguage.googleapis.com"), "", httpclient.WithTimeout(cfg.LLM.Timeout)),
		apiKey:  cfg.LLM.APIKey,
		modelID: model,
	}
}

func (s *geminiLLMService) Chat(ctx context.Context, messages []dto.ChatMessage) (string, error) {
	log.Info().Str("model", s.modelID).Int("messages", len(messages)).Msg("Gemini LLM Service: sending chat request")

	requestBody := GeminiRequestBody{
		Contents:         buildGeminiContents(messages),
		GenerationConfig: map[string]any{"temperature": 0},
	}
	if system := systemText(messages); system != "" {
		requestBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	var geminiResp GeminiResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", s.modelID, s.apiKey)
	if err := s.client.PostJSON(ctx, path, requestBody, &geminiResp); err != nil {
		log.Error().Err(err).Msg("Gemini request failed")
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		log.Error().Interface("gemini_response", geminiResp).Msg("Gemini response has no candidates or parts")
		return "", errors.New("received empty or invalid response structure from Gemini")
	}

	generatedText := geminiResp.Candidates[0].Content.Parts[0].Text
	log.Debug().Str("generated_text", generatedText).Msg("Gemini LLM Service: Extracted generated text")
	return generatedText, nil
}

func systemText(messages []dto.ChatMessage) string {
	var parts []string
	for _, m := range messages {
		if m.Role == dto.RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// buildGeminiContents maps chat roles onto Gemini roles. System messages are
// carried separately as systemInstruction.
func buildGeminiContents(messages []dto.ChatMessage) []GeminiContent {
	contents := make([]GeminiContent, 0, len(messages))
	for _, m := range messages {
		role := "user"
		switch m.Role {
		case dto.RoleSystem:
			continue
		case dto.RoleAssistant:
			role = "model"
		}
		contents = append(contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: m.Content}},
		})
	}
	return contents
}

// --- OpenAI compatible ---

type openAIChatRequest struct {
	Model       string            `json:"model"`
	Messages    []dto.ChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message dto.ChatMessage `json:"message"`
	} `json:"choices"`
}

type openAILLMService struct {
	client *httpclient.Client
	model  string
}

func newOpenAILLMService(cfg *config.Config) *openAILLMService {
	return &openAILLMService{
		client: httpclient.New(baseURLOr(cfg.LLM.BaseURL, "https://api.openai.com"), cfg.LLM.APIKey, httpclient.WithTimeout(cfg.LLM.Timeout)),
		model:  cfg.LLM.Model,
	}
}

func (s *openAILLMService) Chat(ctx context.Context, messages []dto.ChatMessage) (string, error) {
	log.Info().Str("model", s.model).Int("messages", len(messages)).Msg("OpenAI LLM Service: sending chat request")

	var resp openAIChatResponse
	req := openAIChatRequest{Model: s.model, Messages: messages, Temperature: 0}
	if err := s.client.PostJSON(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("received empty choices from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// --- Ollama ---

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []dto.ChatMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

type ollamaChatResponse struct {
	Message dto.ChatMessage `json:"message"`
}

type ollamaLLMService struct {
	client *httpclient.Client
	model  string
}

func newOllamaLLMService(cfg *config.Config) *ollamaLLMService {
	return &ollamaLLMService{
		client: httpclient.New(baseURLOr(cfg.LLM.BaseURL, "http://localhost:11434"), "", httpclient.WithTimeout(cfg.LLM.Timeout)),
		model:  cfg.LLM.Model,
	}
}

func (s *ollamaLLMService) Chat(ctx context.Context, messages []dto.ChatMessage) (string, error) {
	log.Info().Str("model", s.model).Int("messages", len(messages)).Msg("Ollama LLM Service: sending chat request")

	var resp ollamaChatResponse
	req := ollamaChatRequest{Model: s.model, Messages: messages, Stream: false}
	if err := s.client.PostJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	return resp.Message.Content, nil
}
