package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Hybrid Trader Configuration

[fusion]
# Weights for the signal fusion engine; must sum to 1.
weight_ai = 0.5
weight_news = 0.3
weight_rsi = 0.2
# Minimum signal strength required to act. Below this the signal is FLAT.
threshold = 0.3
# RSI bounds for the directional contribution.
rsi_oversold = 30.0
rsi_overbought = 70.0

[risk]
# Fixed stop-loss band as a fraction of entry price.
stop_loss_pct = 0.02
# Take-profit distance in multiples of ATR at entry.
take_profit_atr_mult = 1.5
# Account drawdown that trips the circuit breaker.
drawdown_threshold = 0.05

[sizing]
# Position sizing rule: "fixed_fractional"
rule = "fixed_fractional"
# Fraction of equity committed per position.
fraction = 0.1

[ledger]
# Directory for the parquet trade ledger.
# dir = "~/.config/hybrid-trader/ledger"

[store]
# SQLite database for decision history.
# path = "~/.config/hybrid-trader/trader.db"

[feed]
# Instrument symbol and candle interval.
symbol = "BTCUSDT"
interval = "1h"
# Number of candles fetched per cycle.
lookback = 100
# RSI/ATR period.
indicator_period = 14

[predict]
# AI score provider: "onnx", "openai", or "none"
provider = "none"
# Path to the ONNX model (provider = "onnx").
model_path = ""
# Chat model used when provider = "openai".
model = "gpt-4o-mini"
# Query for news sentiment.
news_query = "finance OR stock OR market"

[notifications]
enabled = true
# Notification level: all, trades_only, errors_only
level = "all"
# Discord webhook URL (or set DISCORD_WEBHOOK_URL).
webhook_url = ""
terminal = true

[logging]
level = "info"
console = true
file = true
`

// createTemplateConfig writes a commented config template so a first run
// leaves something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// WriteTemplate writes the config template to the given directory,
// overwriting any existing file. Used by "config init".
func WriteTemplate(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
