package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient speaks the OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	t       *transport
	apiKey  string
	baseURL string
}

func NewOpenRouterClient(cfg RuntimeConfig) *OpenRouterClient {
	cfg = cfg.withDefaults(RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Host:        openRouterBaseURL,
	})
	base := strings.TrimRight(cfg.Host, "/")
	return &OpenRouterClient{t: newTransport(base, cfg), apiKey: cfg.APIKey, baseURL: base}
}

type openRouterRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Temperature    float64           `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func (c *OpenRouterClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is missing")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	oreq := openRouterRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSON {
		oreq.ResponseFormat = map[string]string{"type": "json_object"}
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out GenerateResponse
	err = c.t.do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
		r.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/dataloom-cli")
		r.Header.Set("X-Title", "DataLoom CLI")
		return r, nil
	}, func(resp *http.Response) error {
		out.RequestID = extractRequestID(resp)
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return &out, nil
}
