package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"songforge/internal/blueprint"
)

func newBlueprintCommand(ctx *commandContext) *cobra.Command {
	blueprintCmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Blueprint utilities",
	}

	blueprintCmd.AddCommand(newBlueprintValidateCommand(ctx))
	blueprintCmd.AddCommand(newBlueprintShowCommand(ctx))

	return blueprintCmd
}

func resolveBlueprintPath(ctx *commandContext, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Paths.BlueprintPath == "" {
		return "", fmt.Errorf("no blueprint: pass a path or set paths.blueprint_path in the config")
	}
	return cfg.Paths.BlueprintPath, nil
}

func newBlueprintValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a blueprint file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveBlueprintPath(ctx, args)
			if err != nil {
				return err
			}
			if _, err := blueprint.Load(path); err != nil {
				return fmt.Errorf("blueprint invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blueprint %s is valid\n", path)
			return nil
		},
	}
}

func newBlueprintShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show a blueprint's rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveBlueprintPath(ctx, args)
			if err != nil {
				return err
			}
			bp, err := blueprint.Load(path)
			if err != nil {
				return fmt.Errorf("load blueprint: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, bp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Genre: %s\n", bp.Genre)
			fmt.Fprintf(out, "Tempo: %d-%d BPM\n", bp.Tempo.Min, bp.Tempo.Max)
			fmt.Fprintf(out, "Required sections: %s\n", strings.Join(bp.RequiredSections, ", "))
			if len(bp.BannedTerms) > 0 {
				fmt.Fprintf(out, "Banned terms: %s\n", strings.Join(bp.BannedTerms, ", "))
			}

			weights := make([]string, 0, len(bp.Rubric.Weights))
			for name := range bp.Rubric.Weights {
				weights = append(weights, name)
			}
			sort.Strings(weights)
			tbl := newResultTable("Metric", "Weight").numeric(2)
			for _, name := range weights {
				tbl.row(name, strconv.FormatFloat(bp.Rubric.Weights[name], 'f', 3, 64))
			}
			fmt.Fprintln(out, tbl.render())
			fmt.Fprintf(out, "Pass: composite >= %.2f and profanity <= %.2f\n", bp.Rubric.MinTotal, bp.Rubric.MaxProfanity)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the blueprint as JSON")
	return cmd
}
