package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/paydash/internal/control"
	"github.com/vietddude/paydash/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "paydash",
	Short: "Payment gateway admin API client",
	Long: `paydash talks to the payment gateway admin backend through a resilient
client: bearer auth with transparent token refresh, retries for rate limits,
server errors and connectivity failures, and a journal of failed requests.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not print notifications")
}

// loadConfig reads .env and the config file, then sets up logging.
// A missing default config file is not an error.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	path := cfgPath
	if _, err := os.Stat(path); os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

// newApp builds the application and attaches terminal output to its bus.
func newApp(ctx context.Context) (*control.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return nil, err
	}

	app, err := control.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize client", "error", err)
		return nil, err
	}

	if !quiet {
		attachToasts(app.Bus, os.Stderr)
	}
	return app, nil
}
