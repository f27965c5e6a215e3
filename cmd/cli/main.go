package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vardrill",
		Short: "Variation drill-down over tabular process data",
		Long: `Rank the factors behind an outcome's variation and replay drill paths
with their cumulative attribution.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newFactorsCmd(),
		newDrillCmd(),
		newStagesCmd(),
		newReportCmd(),
		newGenerateCmd(),
		newMigrateCmd(),
		newSessionsCmd(),
	)

	return rootCmd
}
