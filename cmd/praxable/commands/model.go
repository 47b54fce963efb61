package commands

import (
	"fmt"
	"strings"

	"github.com/SebastianMoseres/Praxable/internal/catalog"
	"github.com/spf13/cobra"
)

// NewRetrainCmd creates the retrain command
func NewRetrainCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the fulfillment model",
		Long:  "Refit the fulfillment model on every scored task and store the new version. Running servers pick it up on their next reload.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				result, err := env.Trainer.Retrain(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to retrain model: %w", err)
				}
				out := cmd.OutOrStdout()
				if !result.Trained {
					fmt.Fprintf(out, "Not enough data to train (%d scored tasks).\n", result.Samples)
					return nil
				}
				fmt.Fprintf(out, "Model trained on %d tasks.\n", result.Samples)
				fmt.Fprintf(out, "  Version: %s\n", result.Version)
				fmt.Fprintf(out, "  Trained at: %s\n", result.TrainedAt.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}
}

// NewCatalogCmd creates the catalog command. It needs no database.
func NewCatalogCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the activity catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load()
			if err != nil {
				return fmt.Errorf("failed to load activity catalog: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, cat.All())
			}
			fmt.Fprintf(out, "Activity catalog v%d:\n", cat.Version())
			for _, a := range cat.All() {
				fmt.Fprintf(out, "  %3d %s %s (%d min) [%s]\n", a.ID, a.Emoji, a.Name, a.DurationMinutes, strings.Join(a.AlignedValues, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
