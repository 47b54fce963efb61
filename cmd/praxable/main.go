package main

import (
	"fmt"
	"os"

	"github.com/SebastianMoseres/Praxable/cmd/praxable/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "praxable",
		Short:        "Operator tool for the Praxable alignment service",
		Long:         "Manage core values, inspect today's free time and recommendations, and retrain the fulfillment model.",
		SilenceUsage: true,
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	open := commands.ConfigOpener(&verbose)
	rootCmd.AddCommand(commands.NewValuesCmd(open))
	rootCmd.AddCommand(commands.NewSlotsCmd(open))
	rootCmd.AddCommand(commands.NewRecommendCmd(open))
	rootCmd.AddCommand(commands.NewRetrainCmd(open))
	rootCmd.AddCommand(commands.NewCatalogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
