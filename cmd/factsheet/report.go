package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/factsheet/internal/analysis/fundamental"
	"github.com/seenimoa/factsheet/internal/config"
	"github.com/seenimoa/factsheet/internal/infra"
	"github.com/seenimoa/factsheet/internal/pipeline"
	"github.com/seenimoa/factsheet/internal/providers"
	"github.com/seenimoa/factsheet/internal/report"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch company facts and write the factsheet",
	Long: `Fetch the companyfacts snapshot, profile and recent 10-K feed for a CIK,
print the income and quick ratio tables, and write three SVG charts plus an
HTML (and optionally PDF) report to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	addReportFlags(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("cik", "", "company CIK (default from config, Tesla 0001318605)")
	cmd.Flags().String("out", "", "output directory for charts and reports")
	cmd.Flags().String("form", "", "filing form to report on (default 10-K)")
	cmd.Flags().Bool("pdf", false, "also export the report as PDF via headless Chrome")
	cmd.Flags().Bool("no-html", false, "skip the HTML report")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := applyReportFlags(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	reg, err := providers.NewRegistry(cfg.SEC)
	if err != nil {
		return fmt.Errorf("initializing providers: %w", err)
	}

	p := pipeline.New(reg, logger)
	res, err := p.Run(ctx, pipeline.Options{
		CIK: cfg.SEC.CIK,
		Selector: fundamental.Selector{
			Taxonomy: cfg.Report.Taxonomy,
			Unit:     cfg.Report.Unit,
			Form:     cfg.Report.Form,
		},
		QuickRatioMinFY: cfg.Report.QuickRatioMinFY,
		FeedLimit:       cfg.SEC.FeedCount,
	})
	if err != nil {
		if errors.Is(err, infra.ErrUpstreamUnavailable) {
			logger.Error().Err(err).Str("cik", cfg.SEC.CIK).Msg("upstream unavailable")
			return fmt.Errorf("upstream unavailable: %w", err)
		}
		return err
	}

	if err := report.WriteText(cmd.OutOrStdout(), res); err != nil {
		return fmt.Errorf("printing tables: %w", err)
	}

	out, err := report.Write(ctx, res, reportConfig())
	if err != nil {
		if out == nil {
			return err
		}
		// Charts and HTML are on disk; only the PDF export failed.
		logger.Warn().Err(err).Msg("pdf export skipped")
	}

	for _, f := range out.Charts {
		fmt.Fprintf(cmd.OutOrStdout(), "  chart: %s\n", f)
	}
	if out.HTMLPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  html:  %s\n", out.HTMLPath)
	}
	if out.PDFPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  pdf:   %s\n", out.PDFPath)
	}
	logger.Info().Str("run_id", res.RunID).Msg(report.Summary(res))
	return nil
}

// applyReportFlags overlays command-line flags onto the loaded config.
func applyReportFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("cik") {
		raw, _ := flags.GetString("cik")
		cik, err := utils.NormalizeCIK(raw)
		if err != nil {
			return fmt.Errorf("--cik: %w", err)
		}
		cfg.SEC.CIK = cik
	}
	if flags.Changed("out") {
		cfg.Report.OutputDir, _ = flags.GetString("out")
	}
	if flags.Changed("form") {
		cfg.Report.Form, _ = flags.GetString("form")
	}
	if pdf, _ := flags.GetBool("pdf"); pdf {
		cfg.Report.PDF = true
	}
	if noHTML, _ := flags.GetBool("no-html"); noHTML {
		cfg.Report.HTML = false
	}
	return nil
}

func reportConfig() report.Config {
	rc := report.DefaultConfig()
	rc.OutputDir = cfg.Report.OutputDir
	rc.HTML = cfg.Report.HTML
	rc.PDF = cfg.Report.PDF
	rc.Chart = rc.Chart.WithSize(cfg.Report.ChartWidth, cfg.Report.ChartHeight)
	rc.Version = version
	return rc
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "═══════════════════════════════════════")
		fmt.Fprintln(w, "  factsheet — Status")
		fmt.Fprintln(w, "═══════════════════════════════════════")
		fmt.Fprintf(w, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(w)

		fmt.Fprintln(w, "  Configuration:")
		fmt.Fprintf(w, "    CIK:           %s\n", cfg.SEC.CIK)
		fmt.Fprintf(w, "    Data URL:      %s\n", cfg.SEC.DataURL)
		fmt.Fprintf(w, "    Rate limit:    %.1f req/s, timeout %s\n", cfg.SEC.RateLimit, cfg.SEC.Timeout())
		fmt.Fprintf(w, "    Form:          %s (%s/%s, quick ratio from FY%d)\n",
			cfg.Report.Form, cfg.Report.Taxonomy, cfg.Report.Unit, cfg.Report.QuickRatioMinFY)
		fmt.Fprintf(w, "    Output:        %s (html=%t, pdf=%t, pdf engine available=%t)\n",
			cfg.Report.OutputDir, cfg.Report.HTML, cfg.Report.PDF, report.IsPDFSupported())
		fmt.Fprintln(w)

		fmt.Fprintln(w, "  Credentials:")
		for _, k := range config.CheckCredentials(cfg) {
			status := "not set (a default contact is sent; SEC may throttle it)"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(w, "    %-25s %s\n", k.Name+":", status)
		}
		fmt.Fprintln(w)

		reg, err := providers.NewRegistry(cfg.SEC)
		if err != nil {
			return fmt.Errorf("initializing providers: %w", err)
		}
		fmt.Fprintln(w, "  Providers:")
		for _, info := range reg.List() {
			fmt.Fprintf(w, "    %-10s %s\n", info.Name, info.Description)
		}
		for _, rt := range reg.Routes() {
			fmt.Fprintf(w, "    %-18s %-6s %s\n", string(rt.Model)+":", rt.Provider, rt.Description)
		}

		if check, _ := cmd.Flags().GetBool("ping"); check {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SEC.Timeout())
			defer cancel()
			for _, info := range reg.List() {
				prov, _ := reg.Get(info.Name)
				state := "ok"
				if err := prov.Ping(ctx); err != nil {
					state = err.Error()
				}
				fmt.Fprintf(w, "    ping %-8s %s\n", info.Name+":", state)
			}
		}

		fmt.Fprintln(w, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check that each provider is reachable")
}
