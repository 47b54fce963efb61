package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/spf13/cobra"
)

// NewSlotsCmd creates the slots command
func NewSlotsCmd(open Opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show today's remaining free time",
		Long:  "Show the free windows between now and the end of the day, after calendar events.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				slots, err := env.Engine.GetFreeSlots(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to compute free slots: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, slots)
				}
				if len(slots) == 0 {
					fmt.Fprintln(out, "No free time left today.")
					return nil
				}
				fmt.Fprintf(out, "Free time (as of %s):\n", env.Engine.Now().Format(models.ClockLayout))
				for _, s := range slots {
					fmt.Fprintf(out, "  %s\n", formatSlot(s))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

// NewRecommendCmd creates the recommend command
func NewRecommendCmd(open Opener) *cobra.Command {
	var (
		values      []string
		minDuration int
		energy      int
		mood        int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest activities for today's free time",
		Long:  "Rank catalog activities against core values, free time and predicted fulfillment. Without --values the stored core values are used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minDuration < 0 {
				return fmt.Errorf("--min-duration cannot be negative")
			}
			for flag, v := range map[string]int{"--energy": energy, "--mood": mood} {
				if v != 0 && (v < 1 || v > 10) {
					return fmt.Errorf("%s must be between 1 and 10", flag)
				}
			}

			return withEnv(cmd.Context(), open, func(env *Env) error {
				ctx := cmd.Context()
				selected := cleanValues(values)
				if len(selected) == 0 {
					stored, err := env.Values.List(ctx)
					if err != nil {
						return fmt.Errorf("failed to list core values: %w", err)
					}
					for _, v := range stored {
						selected = append(selected, v.ValueName)
					}
				}
				if len(selected) == 0 {
					return fmt.Errorf("no core values selected; pass --values or run 'values add'")
				}

				if env.Warm != nil {
					if err := env.Warm(ctx); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
					}
				}

				recs, err := env.Engine.GetRecommendations(ctx, selected, minDuration, recommend.Context{
					EnergyLevel: energy,
					MoodBefore:  mood,
				})
				if err != nil {
					return fmt.Errorf("failed to compute recommendations: %w", err)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, recs)
				}
				if len(recs) == 0 {
					fmt.Fprintln(out, "No activity fits today's free time.")
					return nil
				}
				for i, rec := range recs {
					fmt.Fprintf(out, "%d. %s %s (%d min, score %.1f)\n", i+1, rec.Emoji, rec.Name, rec.DurationMinutes, rec.MatchScore)
					fmt.Fprintf(out, "   values: %s\n", strings.Join(rec.MatchingValues, ", "))
					if rec.PredictedFulfillment != nil {
						fmt.Fprintf(out, "   predicted fulfillment: %.1f\n", *rec.PredictedFulfillment)
					}
					fmt.Fprintf(out, "   suggested: %s\n", formatSlot(rec.SuggestedSlot))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&values, "values", nil, "Comma-separated core values to align with")
	cmd.Flags().IntVar(&minDuration, "min-duration", 0, "Minimum activity duration in minutes")
	cmd.Flags().IntVar(&energy, "energy", 0, "Current energy level (1-10)")
	cmd.Flags().IntVar(&mood, "mood", 0, "Current mood (1-10)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = validation.SanitizeText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formatSlot(s models.FreeSlot) string {
	return fmt.Sprintf("%s-%s (%d min)", s.Start.Format(models.ClockLayout), s.End.Format(models.ClockLayout), s.DurationMinutes)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
