package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dataloom-cli/internal/insights"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

type runtimeOptions struct {
	ProviderFlag string
	ModelFlag    string
	OllamaHost   string
}

// normalizeProvider maps the accepted aliases onto registered provider names.
func normalizeProvider(name string) string {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case "local":
		return ai.ProviderOllama
	case "google":
		return ai.ProviderGemini
	case "openai", "anthropic", "meta":
		return ai.ProviderOpenRouter
	default:
		return p
	}
}

// buildRuntime resolves the provider (flag > config > gemini) and creates its client.
func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	if cfg == nil {
		cfg = &cfgpkg.Global{}
	}
	providerName := normalizeProvider(opts.ProviderFlag)
	if providerName == "" {
		providerName = normalizeProvider(cfg.Provider)
	}
	if providerName == "" {
		providerName = ai.ProviderGemini
	}

	rc := cfg.Runtime()
	rc.APIKey = apiKeyFor(cfg, providerName)
	if providerName == ai.ProviderOllama {
		rc.Host = strings.TrimSpace(opts.OllamaHost)
		if rc.Host == "" {
			rc.Host = cfg.OllamaHost
		}
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s)", providerName, strings.Join(ai.Providers(), "|"))
	}
	return client, providerName, nil
}

// apiKeyFor returns the configured key when it belongs to provider, else the
// provider's own environment variable.
func apiKeyFor(cfg *cfgpkg.Global, provider string) string {
	if cfg != nil && cfg.APIKey != "" && normalizeProvider(cfg.Provider) == provider {
		return cfg.APIKey
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider string) string {
	switch provider {
	case ai.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case ai.ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// selectModel picks the explicit model, then the configured one when it
// belongs to the same provider, then the provider default.
func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.Model != "" && normalizeProvider(cfg.Provider) == provider {
		return cfg.Model
	}
	return ai.DefaultModel(provider)
}

// newGenerator wires an LLM runtime into an insight generator.
func newGenerator(cfg *cfgpkg.Global, opts runtimeOptions, log *zap.Logger) (*insights.Generator, string, error) {
	rt, provider, err := buildRuntime(cfg, opts)
	if err != nil {
		return nil, provider, err
	}
	g := &insights.Generator{
		Runtime: rt,
		Model:   selectModel(cfg, provider, opts.ModelFlag),
		Logger:  log,
	}
	if cfg != nil {
		g.Temperature = cfg.Temperature
		g.MaxTokens = cfg.MaxTokens
	}
	return g, provider, nil
}

// newBuilder returns a dashboard builder configured from cfg. A nil source
// makes every build use the fallback narrative.
func newBuilder(cfg *cfgpkg.Global, src dashboard.InsightSource, log *zap.Logger) *dashboard.Builder {
	b := &dashboard.Builder{Source: src, Logger: log}
	if cfg != nil {
		b.Timeout = cfg.InsightsTimeout()
		b.Classify = cfg.ClassifyOptions()
		b.Charts = cfg.ChartOptions()
	}
	return b
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte, what string) error {
	if path == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", what, err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(w)
		}
		return nil
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", what, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s to %s\n", what, path)
	return nil
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
