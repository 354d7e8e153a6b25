package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fixflow",
	Short: "A FIX order-flow client with durable sequencing and trade statistics",
	Long: `Fixflow issues orders over a FIX session and tracks their lifecycle.

It provides:
  - A durable outbound sequence counter with a daily reset policy
  - Automatic recovery from sequence-gap rejects
  - An order ledger with per-order execution history and VWAP
  - Running trading statistics: notional volume, PnL, per-symbol VWAP
  - A fill journal (CSV or SQLite) surviving the process`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// logger builds the process logger honoring the verbosity flag.
func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
