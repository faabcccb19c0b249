// Command simulate runs valuation simulation jobs from YAML or JSON files.
//
// Usage:
//
//	simulate run --job jobs/dcf.yaml --format table
//	simulate report --formula DCF --format markdown
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"valuation-lab/internal/config"
	"valuation-lab/internal/logging"
)

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:          "simulate",
	Short:        "Monte Carlo DCF and LBO valuation",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./config/valuation.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("postgres-dsn", "", "PostgreSQL DSN for the run store")
	rootCmd.PersistentFlags().String("clickhouse-dsn", "", "ClickHouse DSN for the outcome store")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the result cache")

	bind(v, rootCmd, map[string]string{
		"log.level":      "log-level",
		"log.format":     "log-format",
		"postgres.dsn":   "postgres-dsn",
		"clickhouse.dsn": "clickhouse-dsn",
		"redis.addr":     "redis-addr",
	})

	rootCmd.AddCommand(runCmd, reportCmd)
}

func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			logrus.WithError(err).Fatalf("failed to bind flag %s", flag)
		}
	}
}

// loadConfig reads configuration and applies logging settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
