package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"valuation-lab/internal/app"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise persisted simulation runs",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("formula", "", "restrict to DCF or LBO")
	reportCmd.Flags().String("format", "markdown", "output format: markdown, csv, table, json")
	reportCmd.Flags().String("output", "", "write output to file instead of stdout")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("report needs a persistent run store: set --postgres-dsn")
	}

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	formula, _ := cmd.Flags().GetString("formula")
	rep, err := a.Service.Report(ctx, domain.Formula(strings.ToUpper(formula)))
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	var out string
	switch format {
	case "markdown", "md":
		out = reporting.RenderMarkdown(rep)
	case "csv":
		out = reporting.RenderCSV(rep.Runs)
	case "table":
		out = reporting.RenderRunsTable(rep.Runs)
	case "json":
		b, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		out = string(b) + "\n"
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	a.Metrics.RecordReport(format)
	return write(cmd, out)
}
