// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"hybrid-trader/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "hybrid-trader", "logs", "trader.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel lowers the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithInstrument adds an instrument to the logger context.
func WithInstrument(logger zerolog.Logger, instrument string) zerolog.Logger {
	return logger.With().Str("instrument", instrument).Logger()
}

// LogSignal logs a fused signal.
func LogSignal(logger zerolog.Logger, instrument string, signal models.FusedSignal, price float64) {
	logger.Info().
		Str("event", "signal").
		Str("instrument", instrument).
		Str("direction", string(signal.Direction)).
		Float64("strength", signal.Strength).
		Float64("price", price).
		Msg("Signal fused")
}

// LogOpen logs a position entry.
func LogOpen(logger zerolog.Logger, pos *models.Position) {
	logger.Info().
		Str("event", "open").
		Str("instrument", pos.Instrument).
		Str("side", string(pos.Side)).
		Float64("entry_price", pos.EntryPrice).
		Float64("size", pos.Size).
		Float64("stop_loss", pos.StopLossPrice).
		Float64("take_profit", pos.TakeProfitPrice).
		Msg("Position opened")
}

// LogClose logs a position exit.
func LogClose(logger zerolog.Logger, record *models.TradeRecord) {
	logger.Info().
		Str("event", "close").
		Str("trade_id", record.ID).
		Str("instrument", record.Instrument).
		Str("side", string(record.Side)).
		Str("reason", string(record.ExitReason)).
		Float64("exit_price", record.ExitPrice).
		Float64("pnl_pct", record.PnLPct).
		Msg("Position closed")
}

// LogBreaker logs a drawdown breaker trip. Breaches are logged loudly since
// trading stays paused until an explicit resume.
func LogBreaker(logger zerolog.Logger, instrument string, equity, peak float64) {
	logger.Error().
		Str("event", "breaker").
		Str("instrument", instrument).
		Float64("equity", equity).
		Float64("equity_peak", peak).
		Msg("Drawdown breaker tripped, trading paused")
}
