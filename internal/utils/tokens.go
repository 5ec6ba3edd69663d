package utils

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Token estimation for prompt budgeting. Gemini does not publish a local
// tokenizer, so cl100k_base is used as a close proxy; when the encoding cannot
// be loaded (offline, no cache) the 4-chars-per-token heuristic takes over.

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	return enc
}

// CountTokens returns the number of tokens in text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// EstimateTokens approximates 1 token ~= 4 characters.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit naively truncates text to roughly fit within a token limit.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	return string(runes[:charLimit])
}
