// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Fusion        FusionConfig       `mapstructure:"fusion"`
	Risk          RiskConfig         `mapstructure:"risk"`
	Sizing        SizingConfig       `mapstructure:"sizing"`
	Ledger        LedgerConfig       `mapstructure:"ledger"`
	Store         StoreConfig        `mapstructure:"store"`
	Feed          FeedConfig         `mapstructure:"feed"`
	Predict       PredictConfig      `mapstructure:"predict"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// FusionConfig holds signal fusion weights and thresholds.
type FusionConfig struct {
	WeightAI      float64 `mapstructure:"weight_ai"`
	WeightNews    float64 `mapstructure:"weight_news"`
	WeightRSI     float64 `mapstructure:"weight_rsi"`
	Threshold     float64 `mapstructure:"threshold"`
	RSIOversold   float64 `mapstructure:"rsi_oversold"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
}

// RiskConfig holds risk control thresholds.
type RiskConfig struct {
	StopLossPct       float64 `mapstructure:"stop_loss_pct"`
	TakeProfitATRMult float64 `mapstructure:"take_profit_atr_mult"`
	DrawdownThreshold float64 `mapstructure:"drawdown_threshold"`
}

// SizingConfig holds position sizing configuration.
type SizingConfig struct {
	Rule     string  `mapstructure:"rule"` // "fixed_fractional"
	Fraction float64 `mapstructure:"fraction"`
}

// LedgerConfig holds trade ledger configuration.
type LedgerConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig holds decision history store configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// FeedConfig holds market data feed configuration.
type FeedConfig struct {
	Symbol          string `mapstructure:"symbol"`
	Interval        string `mapstructure:"interval"`
	Lookback        int    `mapstructure:"lookback"`
	IndicatorPeriod int    `mapstructure:"indicator_period"`
	APIKey          string `mapstructure:"api_key"`
	APISecret       string `mapstructure:"api_secret"`
}

// PredictConfig holds score provider configuration.
type PredictConfig struct {
	Provider   string `mapstructure:"provider"` // "onnx", "openai", "none"
	ModelPath  string `mapstructure:"model_path"`
	OpenAIKey  string `mapstructure:"openai_key"`
	Model      string `mapstructure:"model"`
	NewsAPIKey string `mapstructure:"news_api_key"`
	NewsQuery  string `mapstructure:"news_query"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Level      string `mapstructure:"level"` // all, trades_only, errors_only
	WebhookURL string `mapstructure:"webhook_url"`
	Terminal   bool   `mapstructure:"terminal"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/hybrid-trader"
	}
	return filepath.Join(home, ".config", "hybrid-trader")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Fusion: FusionConfig{
			WeightAI:      0.5,
			WeightNews:    0.3,
			WeightRSI:     0.2,
			Threshold:     0.3,
			RSIOversold:   30,
			RSIOverbought: 70,
		},
		Risk: RiskConfig{
			StopLossPct:       0.02,
			TakeProfitATRMult: 1.5,
			DrawdownThreshold: 0.05,
		},
		Sizing: SizingConfig{
			Rule:     "fixed_fractional",
			Fraction: 0.1,
		},
		Ledger: LedgerConfig{
			Dir: filepath.Join(DefaultConfigDir(), "ledger"),
		},
		Store: StoreConfig{
			Path: filepath.Join(DefaultConfigDir(), "trader.db"),
		},
		Feed: FeedConfig{
			Symbol:          "BTCUSDT",
			Interval:        "1h",
			Lookback:        100,
			IndicatorPeriod: 14,
		},
		Predict: PredictConfig{
			Provider:  "none",
			Model:     "gpt-4o-mini",
			NewsQuery: "finance OR stock OR market",
		},
		Notifications: NotificationConfig{
			Enabled:  true,
			Level:    "all",
			Terminal: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Config file not found, create template
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fusion.weight_ai", cfg.Fusion.WeightAI)
	v.SetDefault("fusion.weight_news", cfg.Fusion.WeightNews)
	v.SetDefault("fusion.weight_rsi", cfg.Fusion.WeightRSI)
	v.SetDefault("fusion.threshold", cfg.Fusion.Threshold)
	v.SetDefault("fusion.rsi_oversold", cfg.Fusion.RSIOversold)
	v.SetDefault("fusion.rsi_overbought", cfg.Fusion.RSIOverbought)
	v.SetDefault("risk.stop_loss_pct", cfg.Risk.StopLossPct)
	v.SetDefault("risk.take_profit_atr_mult", cfg.Risk.TakeProfitATRMult)
	v.SetDefault("risk.drawdown_threshold", cfg.Risk.DrawdownThreshold)
	v.SetDefault("sizing.rule", cfg.Sizing.Rule)
	v.SetDefault("sizing.fraction", cfg.Sizing.Fraction)
	v.SetDefault("ledger.dir", cfg.Ledger.Dir)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("feed.symbol", cfg.Feed.Symbol)
	v.SetDefault("feed.interval", cfg.Feed.Interval)
	v.SetDefault("feed.lookback", cfg.Feed.Lookback)
	v.SetDefault("feed.indicator_period", cfg.Feed.IndicatorPeriod)
	v.SetDefault("predict.provider", cfg.Predict.Provider)
	v.SetDefault("predict.model", cfg.Predict.Model)
	v.SetDefault("predict.news_query", cfg.Predict.NewsQuery)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.level", cfg.Notifications.Level)
	v.SetDefault("notifications.terminal", cfg.Notifications.Terminal)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Feed.APISecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Predict.OpenAIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.Predict.NewsAPIKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notifications.WebhookURL = v
	}
	if v := os.Getenv("TRADE_SYMBOL"); v != "" {
		cfg.Feed.Symbol = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	weightSum := c.Fusion.WeightAI + c.Fusion.WeightNews + c.Fusion.WeightRSI
	if c.Fusion.WeightAI < 0 || c.Fusion.WeightNews < 0 || c.Fusion.WeightRSI < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("fusion weights must sum to 1, got %.6f", weightSum)
	}
	if c.Fusion.Threshold < 0 || c.Fusion.Threshold > 1 {
		return fmt.Errorf("fusion threshold must be between 0 and 1")
	}
	if c.Fusion.RSIOversold <= 0 || c.Fusion.RSIOverbought >= 100 ||
		c.Fusion.RSIOversold >= c.Fusion.RSIOverbought {
		return fmt.Errorf("rsi bounds must satisfy 0 < oversold < overbought < 100")
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct must be between 0 and 1")
	}
	if c.Risk.TakeProfitATRMult <= 0 {
		return fmt.Errorf("take_profit_atr_mult must be positive")
	}
	if c.Risk.DrawdownThreshold <= 0 || c.Risk.DrawdownThreshold >= 1 {
		return fmt.Errorf("drawdown_threshold must be between 0 and 1")
	}
	if c.Sizing.Fraction <= 0 || c.Sizing.Fraction > 1 {
		return fmt.Errorf("sizing fraction must be between 0 and 1")
	}
	if c.Notifications.Level != "all" && c.Notifications.Level != "trades_only" &&
		c.Notifications.Level != "errors_only" {
		return fmt.Errorf("invalid notification level: %s", c.Notifications.Level)
	}
	return nil
}
