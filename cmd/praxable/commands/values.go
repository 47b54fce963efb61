package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/spf13/cobra"
)

// NewValuesCmd creates the values command with list, add and delete subcommands
func NewValuesCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Manage core values",
		Long:  "List, add or delete the core values recommendations are aligned with.",
	}
	cmd.AddCommand(newValuesListCmd(open))
	cmd.AddCommand(newValuesAddCmd(open))
	cmd.AddCommand(newValuesDeleteCmd(open))
	return cmd
}

func newValuesListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List core values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				values, err := env.Values.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list core values: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(values) == 0 {
					fmt.Fprintln(out, "No core values defined. Use 'values add' to add one.")
					return nil
				}
				for _, v := range values {
					fmt.Fprintf(out, "  - %s\n", v.ValueName)
				}
				return nil
			})
		},
	}
}

func newValuesAddCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a core value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := validation.SanitizeText(args[0])
			if name == "" {
				return fmt.Errorf("value name cannot be empty")
			}
			if len(name) > 100 {
				return fmt.Errorf("value name must be at most 100 characters")
			}
			return withEnv(cmd.Context(), open, func(env *Env) error {
				created, err := env.Values.Create(cmd.Context(), name)
				if errors.Is(err, database.ErrDuplicate) {
					return fmt.Errorf("core value %q already exists", name)
				}
				if err != nil {
					return fmt.Errorf("failed to add core value: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added core value: %s\n", created.ValueName)
				return nil
			})
		},
	}
}

func newValuesDeleteCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a core value",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return withEnv(cmd.Context(), open, func(env *Env) error {
				err := env.Values.Delete(cmd.Context(), name)
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("core value %q not found", name)
				}
				if err != nil {
					return fmt.Errorf("failed to delete core value: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted core value: %s\n", name)
				return nil
			})
		},
	}
}
