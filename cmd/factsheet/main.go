// factsheet renders an annual financial factsheet for one SEC registrant
// from the EDGAR companyfacts API.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/factsheet/internal/config"
	"github.com/seenimoa/factsheet/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "factsheet",
	Short: "Annual margins and liquidity from SEC EDGAR company facts",
	Long: `factsheet fetches a company's XBRL facts from SEC EDGAR, reduces them to
one value per 10-K filing and period, and reports gross and net profit
margins, net income and the quick ratio as tables, SVG charts and an HTML
(optionally PDF) factsheet.

Running factsheet without a subcommand is the same as "factsheet report".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			if _, err := logging.ParseLevel(override); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			level = override
		}
		logger = logging.New(level, cfg.Logging.Format)
		if _, err := logging.ParseLevel(level); err != nil {
			logger.Warn().Err(err).Msg("logging.level in config ignored, using info")
		}
		return nil
	},
	RunE: runReport,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (trace, debug, info, warn, error)")
	addReportFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("factsheet %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}
