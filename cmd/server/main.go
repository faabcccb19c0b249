// Command server runs the simulation HTTP API.
// Routes: POST/GET /api/simulations, GET|DELETE /api/simulations/:id,
// GET /api/simulations/:id/ws (progress), GET /api/report, /health, /metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"valuation-lab/internal/app"
	"valuation-lab/internal/config"
	"valuation-lab/internal/logging"
	"valuation-lab/internal/server"
)

var log = logging.Component("main")

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Valuation simulation API server",
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", "", "config file (default ./config/valuation.yaml)")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("postgres-dsn", "", "PostgreSQL DSN for the run store")
	flags.String("clickhouse-dsn", "", "ClickHouse DSN for the outcome store")
	flags.String("redis-addr", "", "Redis address for the result cache")
	flags.Int("workers", 1, "default worker count per simulation")
	flags.Bool("use-memory", false, "ignore configured backends and keep runs in memory")

	for key, name := range map[string]string{
		"server.addr":        "addr",
		"postgres.dsn":       "postgres-dsn",
		"clickhouse.dsn":     "clickhouse-dsn",
		"redis.addr":         "redis-addr",
		"simulation.workers": "workers",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return err
	}
	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}
	if useMemory, _ := cmd.Flags().GetBool("use-memory"); useMemory {
		cfg.Postgres.DSN = ""
		cfg.ClickHouse.DSN = ""
		cfg.Redis.Addr = ""
	}

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Infof("starting server (workers=%d keep_outcomes=%v)", cfg.Simulation.Workers, cfg.Simulation.KeepOutcomes)
	if err := server.New(a.Service, a.Metrics).ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
