// Package config loads the classifier configuration from a yaml file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/paidsearchlab/searchintent/internal/logger"
)

// Default configuration values.
const (
	defaultCachePath           = "searchintent.db"
	defaultServerPort          = 8080
	defaultLLMProvider         = "openai"
	defaultOpenAIModel         = "gpt-4o-mini"
	defaultAnthropicModel      = "claude-3-5-haiku-latest"
	defaultBatchSize           = 50
	defaultMaxLLMTerms         = 500
	defaultVolumeShare         = 0.95
	defaultSimilarityThreshold = 0.80
	defaultLogLevel            = "info"
)

// Config holds all configuration for the search intent classifier.
type Config struct {
	Account  AccountConfig  `mapstructure:"account"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  logger.Config  `mapstructure:"logging"`
}

// AccountConfig is the per-account metadata the pipeline consumes.
type AccountConfig struct {
	ID                string   `mapstructure:"id"`
	BrandStrings      []string `mapstructure:"brand_strings"`
	CompetitorStrings []string `mapstructure:"competitor_strings"`
	SoldBrands        []string `mapstructure:"sold_brands"`
	BusinessType      string   `mapstructure:"business_type"`
}

// LLMConfig selects and configures the LLM provider. Model selection is an
// immutable run parameter; nothing here can be changed mid-run.
type LLMConfig struct {
	Provider         string  `mapstructure:"provider"`
	Model            string  `mapstructure:"model"`
	APIKey           string  `mapstructure:"api_key"`
	BatchSize        int     `mapstructure:"batch_size"`
	MaxTerms         int     `mapstructure:"max_terms"`
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
}

// CacheConfig locates the persistent classification cache.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig carries tunable pipeline thresholds.
type PipelineConfig struct {
	VolumeShare         float64 `mapstructure:"volume_share"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Load reads configuration from the given file (or the default search paths
// when path is empty) and the environment. A missing account ID is fatal
// here, before any pipeline stage runs.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("SEARCHINTENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "SEARCHINTENT_LLM_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// The selected provider's conventional variable is the fallback; it can
	// only be chosen once the provider is known.
	if cfg.LLM.APIKey == "" {
		if cfg.LLM.Provider == "anthropic" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		} else {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return &cfg, nil
}

// Validate checks required values and fills in the provider's default model.
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return errors.New("config: account.id is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "anthropic" {
			c.LLM.Model = defaultAnthropicModel
		} else {
			c.LLM.Model = defaultOpenAIModel
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.path", defaultCachePath)
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("llm.provider", defaultLLMProvider)
	v.SetDefault("llm.batch_size", defaultBatchSize)
	v.SetDefault("llm.max_terms", defaultMaxLLMTerms)
	v.SetDefault("pipeline.volume_share", defaultVolumeShare)
	v.SetDefault("pipeline.similarity_threshold", defaultSimilarityThreshold)
	v.SetDefault("logging.level", defaultLogLevel)
}
