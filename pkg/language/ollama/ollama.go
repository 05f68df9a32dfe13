// Package ollama implements pkg/language's Service against Ollama's chat API,
// using JSON output mode so every prompt yields a structured object.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/language"
)

const (
	// DefaultModel is the default chat model for structured inference.
	DefaultModel = "llama3.1"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// maxAttempts bounds the retry budget for one inference. Retries cover
	// transport failures and unparseable model output alike.
	maxAttempts = 3
)

// Service wraps Ollama's chat API in JSON mode.
type Service struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Ollama language service.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel if empty.
	Model string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// NewService creates a new language service backed by Ollama.
func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Service{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}, nil
}

// Infer renders the prompt, calls the chat API, and returns the JSON object
// the model produced. Failed attempts are retried up to the budget.
func (s *Service) Infer(ctx context.Context, prompt language.Prompt, vars map[string]any) (json.RawMessage, error) {
	system, user, err := language.Render(prompt, vars)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := s.chat(ctx, system, user)
		if err == nil {
			return raw, nil
		}

		lastErr = err
		s.logger.Warn("inference attempt failed",
			zap.String("prompt", string(prompt)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: prompt %q: %v", language.ErrInference, prompt, lastErr)
}

func (s *Service) chat(ctx context.Context, system, user string) (json.RawMessage, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": 0,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// JSON mode guarantees a JSON document, not that it is an object of the
	// requested shape; validate it parses before handing it to the decoders.
	raw := json.RawMessage(chatResp.Message.Content)
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("model produced invalid JSON: %w", err)
	}

	return raw, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	return nil
}

var _ language.Service = (*Service)(nil)
