package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hybrid-trader/internal/config"
	"hybrid-trader/internal/fusion"
	"hybrid-trader/internal/ledger"
	"hybrid-trader/internal/logging"
	"hybrid-trader/internal/notify"
	"hybrid-trader/internal/risk"
	"hybrid-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Hybrid Trader - AI and sentiment driven trading engine",
		Long: `Hybrid Trader is an automated trading engine that fuses an AI model
score, news sentiment, and RSI into a single directional signal, manages
one position per instrument under stop-loss, take-profit, and drawdown
breaker rules, and records every completed trade in an append-only ledger.

Use 'trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/hybrid-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))

	return rootCmd
}

// openLedger opens the on-disk trade ledger from config.
func (app *App) openLedger() (ledger.TradeLedger, error) {
	return ledger.NewParquetLedger(app.Config.Ledger.Dir)
}

// openStore opens the decision history store from config.
func (app *App) openStore() (store.DataStore, error) {
	return store.NewSQLiteStore(app.Config.Store.Path)
}

// newNotifier builds the configured notifier, or a silent one when
// notifications are disabled.
func (app *App) newNotifier() notify.Notifier {
	if !app.Config.Notifications.Enabled {
		return notify.Nop{}
	}

	var channels []notify.Channel
	if app.Config.Notifications.Terminal {
		channels = append(channels, notify.NewTerminalChannel(true))
	}
	if app.Config.Notifications.WebhookURL != "" {
		channels = append(channels, notify.NewDiscordChannel(app.Config.Notifications.WebhookURL))
	}
	return notify.NewMultiNotifier(notify.Level(app.Config.Notifications.Level), channels...)
}

// fusionConfig maps the app config onto the fusion engine's config.
func (app *App) fusionConfig() fusion.Config {
	return fusion.Config{
		WeightAI:      app.Config.Fusion.WeightAI,
		WeightNews:    app.Config.Fusion.WeightNews,
		WeightRSI:     app.Config.Fusion.WeightRSI,
		Threshold:     app.Config.Fusion.Threshold,
		RSIOversold:   app.Config.Fusion.RSIOversold,
		RSIOverbought: app.Config.Fusion.RSIOverbought,
	}
}

// riskConfig maps the app config onto the risk controller's config.
func (app *App) riskConfig() risk.Config {
	return risk.Config{
		StopLossPct:       app.Config.Risk.StopLossPct,
		TakeProfitATRMult: app.Config.Risk.TakeProfitATRMult,
		DrawdownThreshold: app.Config.Risk.DrawdownThreshold,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Hybrid Trader v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config template to the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			path, err := config.WriteTemplate(dir)
			if err != nil {
				return err
			}
			output.Success("Config template written to %s", path)
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Fusion")
	output.Printf("  Weights (ai/news/rsi): %.2f / %.2f / %.2f\n",
		cfg.Fusion.WeightAI, cfg.Fusion.WeightNews, cfg.Fusion.WeightRSI)
	output.Printf("  Threshold:             %.2f\n", cfg.Fusion.Threshold)
	output.Printf("  RSI bounds:            %.0f / %.0f\n", cfg.Fusion.RSIOversold, cfg.Fusion.RSIOverbought)
	output.Println()

	output.Bold("Risk")
	output.Printf("  Stop loss:             %.1f%%\n", cfg.Risk.StopLossPct*100)
	output.Printf("  Take profit:           %.1fx ATR\n", cfg.Risk.TakeProfitATRMult)
	output.Printf("  Drawdown breaker:      %.1f%%\n", cfg.Risk.DrawdownThreshold*100)
	output.Printf("  Sizing fraction:       %.2f\n", cfg.Sizing.Fraction)
	output.Println()

	output.Bold("Feed")
	output.Printf("  Symbol:                %s\n", cfg.Feed.Symbol)
	output.Printf("  Interval:              %s\n", cfg.Feed.Interval)
	output.Println()

	output.Bold("Predict")
	output.Printf("  Provider:              %s\n", cfg.Predict.Provider)
	output.Printf("  News query:            %s\n", cfg.Predict.NewsQuery)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:               %v\n", cfg.Notifications.Enabled)
	output.Printf("  Level:                 %s\n", cfg.Notifications.Level)
	output.Printf("  Webhook:               %v\n", cfg.Notifications.WebhookURL != "")
}
