package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "bookrun"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Secondhand book resale valuation and buy/skip decisions",
		Version: version,
		Long: `bookrun prices used books from marketplace signals and decides whether
a copy is worth buying for resale.

Each evaluation routes the book to the best-fitting pricing model, overlays
collectible detection, scores resale confidence, estimates time to sell,
and applies configurable buy/skip thresholds. Sparse data never aborts an
evaluation; it lowers confidence and can flag the book for manual review.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Directory of YAML config files (models, multipliers, fame, profiles)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		levelStr, _ := cmd.Flags().GetString("log-level")
		level, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		return nil
	}

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
