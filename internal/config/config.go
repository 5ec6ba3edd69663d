package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
)

// EnvPrefix prefixes every environment override, e.g. DATALOOM_MODEL.
const EnvPrefix = "DATALOOM"

// Global configuration structure.
type Global struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	OllamaHost  string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	InsightsTimeoutSec int `mapstructure:"insights_timeout_sec" yaml:"insights_timeout_sec"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Analysis
	MaxCategoricalUnique int `mapstructure:"max_categorical_unique" yaml:"max_categorical_unique"`
	ChartSampleRows      int `mapstructure:"chart_sample_rows" yaml:"chart_sample_rows"`

	// Optional JSON file merged into the model catalog at startup.
	ModelsCatalog string `mapstructure:"models_catalog" yaml:"models_catalog,omitempty"`

	ServerAddr      string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerMaxBodyMB int    `mapstructure:"server_max_body_mb" yaml:"server_max_body_mb"`
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.dataloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dataloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first when present; it never overrides variables
// already set in the process environment.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Model == "" {
		c.Model = ai.DefaultModel(c.Provider)
	}
	if c.APIKey == "" {
		c.APIKey = providerKey(c.Provider)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ai.ProviderGemini)
	// empty model resolves to the provider's default after load
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_tokens", 2000)
	v.SetDefault("insights_timeout_sec", 30)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("max_categorical_unique", 20)
	v.SetDefault("chart_sample_rows", 100)
	v.SetDefault("models_catalog", "")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("server_max_body_mb", 10)
	v.SetDefault("log_level", "info")
}

// providerKey reads the key variable each provider documents.
func providerKey(provider string) string {
	switch provider {
	case ai.ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	case ai.ProviderGemini, "":
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// Set assigns one key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if p == "local" {
			p = ai.ProviderOllama
		}
		if !slices.Contains(ai.Providers(), p) {
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
		}
		if c.Model == ai.DefaultModel(c.Provider) {
			c.Model = ai.DefaultModel(p)
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "api_key":
		c.APIKey = val
	case "ollama_host":
		c.OllamaHost = val
	case "models_catalog":
		c.ModelsCatalog = val
	case "server_addr":
		c.ServerAddr = val
	case "log_level":
		c.LogLevel = val
	case "temperature":
		f, err := parseFloat(key, val)
		if err != nil {
			return err
		}
		c.Temperature = f
	default:
		dst := c.intField(key)
		if dst == nil {
			return fmt.Errorf("unknown key: %s", key)
		}
		i, err := parseInt(key, val)
		if err != nil {
			return err
		}
		*dst = i
	}
	return nil
}

func (c *Global) intField(key string) *int {
	switch key {
	case "max_tokens":
		return &c.MaxTokens
	case "insights_timeout_sec":
		return &c.InsightsTimeoutSec
	case "http_timeout_sec":
		return &c.HTTPTimeoutSec
	case "retry_max_attempts":
		return &c.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs
	case "retry_max_delay_ms":
		return &c.RetryMaxDelayMs
	case "max_categorical_unique":
		return &c.MaxCategoricalUnique
	case "chart_sample_rows":
		return &c.ChartSampleRows
	case "server_max_body_mb":
		return &c.ServerMaxBodyMB
	}
	return nil
}

// Runtime returns the settings handed to the LLM runtime factory.
func (c *Global) Runtime() ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
	}
	if c.Provider == ai.ProviderOllama {
		rc.Host = c.OllamaHost
	}
	return rc
}

func (c *Global) ClassifyOptions() analysis.Options {
	return analysis.Options{MaxCategoricalUnique: c.MaxCategoricalUnique}
}

func (c *Global) ChartOptions() charts.Options {
	o := charts.DefaultOptions()
	o.SampleRows = c.ChartSampleRows
	o.MaxCategories = c.MaxCategoricalUnique
	return o
}

func (c *Global) InsightsTimeout() time.Duration {
	return time.Duration(c.InsightsTimeoutSec) * time.Second
}

func parseInt(key, val string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid int for %s: %v", key, val)
	}
	return i, nil
}

func parseFloat(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid float for %s: %v", key, val)
	}
	return f, nil
}
