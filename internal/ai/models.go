package ai

import (
	"encoding/json"
	"os"
	"sort"
)

// ModelInfo describes a model known to the CLI. Prices are illustrative and
// only feed the cost estimate printed after an insights run.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gemini-2.0-flash": {
		Name:          "gemini-2.0-flash",
		Provider:      ProviderGemini,
		ContextTokens: 1048576,
		InputPerK:     0.0001,
		OutputPerK:    0.0004,
	},
	"gemini-1.5-flash": {
		Name:          "gemini-1.5-flash",
		Provider:      ProviderGemini,
		ContextTokens: 1000000,
		InputPerK:     0.000075,
		OutputPerK:    0.0003,
	},
	"gemini-1.5-pro": {
		Name:          "gemini-1.5-pro",
		Provider:      ProviderGemini,
		ContextTokens: 2000000,
		InputPerK:     0.00125,
		OutputPerK:    0.005,
	},
	"openai/gpt-4o-mini": {
		Name:          "openai/gpt-4o-mini",
		Provider:      ProviderOpenRouter,
		ContextTokens: 128000,
		InputPerK:     0.00015,
		OutputPerK:    0.0006,
	},
	"google/gemini-2.0-flash-001": {
		Name:          "google/gemini-2.0-flash-001",
		Provider:      ProviderOpenRouter,
		ContextTokens: 1048576,
		InputPerK:     0.0001,
		OutputPerK:    0.0004,
	},
	"deepseek/deepseek-r1:free": {
		Name:          "deepseek/deepseek-r1:free",
		Provider:      ProviderOpenRouter,
		ContextTokens: 128000,
	},
	"llama3.1:8b": {
		Name:          "llama3.1:8b",
		Provider:      ProviderOllama,
		ContextTokens: 8192,
	},
	"qwen2.5:7b": {
		Name:          "qwen2.5:7b",
		Provider:      ProviderOllama,
		ContextTokens: 32768,
	},
}

var defaultModels = map[string]string{
	ProviderGemini:     "gemini-2.0-flash",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOllama:     "llama3.1:8b",
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		models[k] = v
	}
}

// Catalog returns the known models sorted by provider, then name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
