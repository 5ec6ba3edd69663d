package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	t       *transport
	apiKey  string
	baseURL string
}

// NewGeminiClient returns a client with Gemini defaults for unset knobs.
func NewGeminiClient(cfg RuntimeConfig) *GeminiClient {
	cfg = cfg.withDefaults(RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Host:        geminiBaseURL,
	})
	base := strings.TrimRight(cfg.Host, "/")
	return &GeminiClient{t: newTransport(base, cfg), apiKey: cfg.APIKey, baseURL: base}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ResponseID string `json:"responseId"`
}

// Generate maps the chat messages onto Gemini contents: system messages become
// the system instruction and assistant turns use the "model" role.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is missing")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	greq := geminiRequest{}
	var system []geminiPart
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, geminiPart{Text: m.Content})
		case "assistant":
			greq.Contents = append(greq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			greq.Contents = append(greq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		greq.SystemInstruction = &geminiContent{Parts: system}
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		greq.GenerationConfig.Temperature = &temp
	}
	greq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if req.JSON {
		greq.GenerationConfig.ResponseMimeType = "application/json"
	}
	payload, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(req.Model))
	var gresp geminiResponse
	var requestID string
	err = c.t.do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-goog-api-key", c.apiKey)
		return r, nil
	}, func(resp *http.Response) error {
		requestID = extractRequestID(resp)
		return json.NewDecoder(resp.Body).Decode(&gresp)
	})
	if err != nil {
		return nil, err
	}
	if len(gresp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, p := range gresp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return &GenerateResponse{
		ID:      gresp.ResponseID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: text.String()}}},
		Usage: Usage{
			PromptTokens:     gresp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gresp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gresp.UsageMetadata.TotalTokenCount,
		},
		RequestID: requestID,
	}, nil
}
