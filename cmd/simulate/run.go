package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"valuation-lab/internal/app"
	"valuation-lab/internal/config"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/reporting"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation job",
	RunE:  runJob,
}

func init() {
	runCmd.Flags().String("job", "", "job file (.yaml or .json)")
	runCmd.Flags().String("format", "table", "output format: table, markdown, csv, json")
	runCmd.Flags().String("output", "", "write output to file instead of stdout")
	runCmd.Flags().Int("iterations", 0, "override job iterations")
	runCmd.Flags().Int("workers", 0, "override worker count")
	runCmd.Flags().Uint64("seed", 0, "override random seed")
	runCmd.Flags().Bool("keep-outcomes", false, "persist per-iteration outcomes")
	runCmd.Flags().Bool("persist", false, "store the run in the configured postgres/clickhouse/redis backends")
	_ = runCmd.MarkFlagRequired("job")
}

func runJob(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("job")
	job, err := config.LoadJob(path)
	if err != nil {
		return err
	}
	applyOverrides(cmd, job, cfg)

	format, _ := cmd.Flags().GetString("format")
	render, err := resultRenderer(format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Service.Run(ctx, job)
	if err != nil {
		return err
	}

	out, err := render(res)
	if err != nil {
		return err
	}
	return write(cmd, out)
}

func applyOverrides(cmd *cobra.Command, job *config.Job, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		job.Options.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("workers") {
		job.Options.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetUint64("seed")
		job.Options.RandomSeed = &seed
	}
	if flags.Changed("keep-outcomes") {
		cfg.Simulation.KeepOutcomes, _ = flags.GetBool("keep-outcomes")
	}
	if persist, _ := flags.GetBool("persist"); !persist {
		cfg.Postgres.DSN = ""
		cfg.ClickHouse.DSN = ""
		cfg.Redis.Addr = ""
	}
}

func resultRenderer(format string) (func(*domain.SimulationResult) (string, error), error) {
	switch format {
	case "table":
		return func(r *domain.SimulationResult) (string, error) { return reporting.RenderResultTable(r), nil }, nil
	case "markdown", "md":
		return func(r *domain.SimulationResult) (string, error) { return reporting.RenderResultMarkdown(r), nil }, nil
	case "csv":
		return func(r *domain.SimulationResult) (string, error) { return reporting.RenderResultCSV(r), nil }, nil
	case "json":
		return func(r *domain.SimulationResult) (string, error) {
			b, err := json.MarshalIndent(r, "", "  ")
			return string(b) + "\n", err
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func write(cmd *cobra.Command, content string) error {
	path, _ := cmd.Flags().GetString("output")
	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	_, err := io.WriteString(w, content)
	return err
}
