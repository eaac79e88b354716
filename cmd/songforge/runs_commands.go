package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"songforge/internal/pipeline"
	"songforge/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted runs",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsStatsCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFilter string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []pipeline.Status
			if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
				for _, part := range strings.Split(trimmed, ",") {
					statuses = append(statuses, pipeline.Status(strings.TrimSpace(part)))
				}
			}

			records, err := store.ListRuns(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, records)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			tbl := newResultTable("Run", "Status", "Seed", "Composite", "Started").numeric(3, 4)
			for _, record := range records {
				tbl.row(
					record.ID,
					string(record.Status),
					strconv.FormatUint(record.BaseSeed, 10),
					formatScore(record.Composite),
					record.CreatedAt.Local().Format(time.DateTime),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl.render())
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Comma-separated status filter (succeeded, failed, ...)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with artifacts and fix history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runID := args[0]
			record, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("run %s not found", runID)
			}
			artifacts, err := store.ArtifactsForRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			attempts, err := store.FixAttemptsForRun(cmd.Context(), runID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, struct {
					Run         *runstore.RunRecord          `json:"run"`
					Artifacts   []*runstore.ArtifactRecord   `json:"artifacts"`
					FixAttempts []*runstore.FixAttemptRecord `json:"fix_attempts"`
				}{record, artifacts, attempts})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Run %s: %s\n", record.ID, colorizeStatus(record.Status, colorize))
			fmt.Fprintf(out, "Seed: %d\n", record.BaseSeed)
			fmt.Fprintf(out, "Specification: %s\n", record.Fingerprint)
			if record.FailureReason != "" {
				fmt.Fprintf(out, "Failure: %s\n", record.FailureReason)
			}

			if len(artifacts) > 0 {
				tbl := newResultTable("Stage", "Fix", "Hash").numeric(2)
				for _, art := range artifacts {
					tbl.row(art.StageName, strconv.Itoa(art.FixIteration), shortHash(art.Hash))
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, tbl.render())
			}

			for _, attempt := range attempts {
				fmt.Fprintf(out, "\nFix #%d implicated %s, re-ran %s\n",
					attempt.Iteration,
					strings.Join(attempt.Implicated, ", "),
					strings.Join(attempt.Reran, ", "))
				if attempt.Report != nil {
					fmt.Fprintln(out, renderScoreTable(attempt.Report))
				}
			}

			if record.Report != nil && len(attempts) == 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderScoreTable(record.Report))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run as JSON")
	return cmd
}

func newRunsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count runs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			total := 0
			tbl := newResultTable("Status", "Runs").numeric(2)
			for _, status := range []pipeline.Status{pipeline.StatusSucceeded, pipeline.StatusFailed, pipeline.StatusRunning} {
				if count, ok := stats[status]; ok {
					tbl.row(string(status), strconv.Itoa(count))
					total += count
				}
			}
			tbl.row("total", strconv.Itoa(total))
			fmt.Fprintln(cmd.OutOrStdout(), tbl.render())
			return nil
		},
	}
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete run history (pins are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
