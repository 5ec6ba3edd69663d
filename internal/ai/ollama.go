package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient talks to a local Ollama server through /api/chat.
type OllamaClient struct {
	t    *transport
	host string
}

// NewOllamaClient creates a client. Local models are slow to load, so the
// default timeout is longer than the hosted providers.
func NewOllamaClient(cfg RuntimeConfig) *OllamaClient {
	cfg = cfg.withDefaults(RuntimeConfig{
		HTTPTimeout: 120 * time.Second,
		RetryMax:    2,
		BaseDelay:   300 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Host:        defaultOllamaHost,
	})
	host := strings.TrimRight(cfg.Host, "/")
	return &OllamaClient{t: newTransport(host, cfg), host: host}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	if req.JSON {
		oreq.Format = "json"
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var oresp ollamaChatResponse
	err = c.t.do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&oresp)
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(oresp.Message.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return &GenerateResponse{
		ID:      oresp.Model,
		Choices: []Choice{{Message: oresp.Message}},
		Usage: Usage{
			PromptTokens:     oresp.PromptEvalCount,
			CompletionTokens: oresp.EvalCount,
			TotalTokens:      oresp.PromptEvalCount + oresp.EvalCount,
		},
	}, nil
}
