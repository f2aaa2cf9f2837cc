package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the snapshot database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// EDGARConfig configures access to the SEC EDGAR APIs.
// The SEC requires a User-Agent identifying the caller.
type EDGARConfig struct {
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	CacheDir        string `yaml:"cache_dir" mapstructure:"cache_dir"`
	TickerCacheDays int    `yaml:"ticker_cache_days" mapstructure:"ticker_cache_days"`
	FactsCacheHours int    `yaml:"facts_cache_hours" mapstructure:"facts_cache_hours"`
	AnnualForm      string `yaml:"annual_form" mapstructure:"annual_form"`
	QuarterForm     string `yaml:"quarter_form" mapstructure:"quarter_form"`
	MaxConcurrency  int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RequestTimeoutS int    `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	RequestRetries  int    `yaml:"request_retries" mapstructure:"request_retries"`
}

// MarketConfig configures the market data provider.
type MarketConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	CacheDir       string `yaml:"cache_dir" mapstructure:"cache_dir"`
	QuoteCacheMins int    `yaml:"quote_cache_mins" mapstructure:"quote_cache_mins"`
}

// AnthropicConfig holds Anthropic API settings for the analyze command.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// NormalizeConfig configures the fact normalizer.
type NormalizeConfig struct {
	MaxConcurrentConcepts int `yaml:"max_concurrent_concepts" mapstructure:"max_concurrent_concepts"`
}

// RenderConfig configures chart and spreadsheet output.
type RenderConfig struct {
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// ServerConfig configures the local viewer server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINQUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "finquarry.db")
	// Keys with no meaningful default still need registering so
	// AutomaticEnv surfaces them through Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("edgar.user_agent", "finquarry research (research@finquarry.dev)")
	v.SetDefault("edgar.cache_dir", "cache/edgar")
	v.SetDefault("edgar.ticker_cache_days", 30)
	v.SetDefault("edgar.facts_cache_hours", 24)
	v.SetDefault("edgar.annual_form", "10-K")
	v.SetDefault("edgar.quarter_form", "10-Q")
	v.SetDefault("edgar.max_concurrency", 4)
	v.SetDefault("edgar.request_timeout_secs", 30)
	v.SetDefault("edgar.request_retries", 3)
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.cache_dir", "cache/market")
	v.SetDefault("market.quote_cache_mins", 15)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("normalize.max_concurrent_concepts", 8)
	v.SetDefault("render.out_dir", "out")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
