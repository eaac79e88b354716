package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"songforge/internal/pipeline"
	"songforge/internal/rubric"
	"songforge/internal/song"
	"songforge/internal/stages"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusColor(status pipeline.Status) string {
	switch status {
	case pipeline.StatusSucceeded:
		return ansiGreen
	case pipeline.StatusFailed:
		return ansiRed
	case pipeline.StatusFixing:
		return ansiYellow
	default:
		return ansiBlue
	}
}

func colorizeStatus(status pipeline.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	return statusColor(status) + string(status) + ansiReset
}

func renderRunResult(out io.Writer, result *pipeline.RunResult) {
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run %s: %s (seed %d)\n", result.RunID, colorizeStatus(result.Status, colorize), result.BaseSeed)

	if bundle := composeBundle(result); bundle != nil {
		fmt.Fprintf(out, "\n%s (%s)\n", bundle.Title, bundle.Genre)
		for _, section := range bundle.Lyrics.Sections {
			fmt.Fprintf(out, "\n[%s]\n", section.Name)
			for _, line := range section.Lines {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		fmt.Fprintf(out, "\nProduction: %d BPM, key of %s, %s\n",
			bundle.Production.TempoBPM,
			bundle.Production.Key,
			strings.Join(bundle.Production.Instruments, ", "))
	}

	if result.Report != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderScoreTable(result.Report))
	}

	if len(result.FixAttempts) > 0 {
		fmt.Fprintf(out, "\nFix attempts: %d\n", len(result.FixAttempts))
		for _, attempt := range result.FixAttempts {
			verdict := "fail"
			if attempt.Report != nil && attempt.Report.Pass {
				verdict = "pass"
			}
			fmt.Fprintf(out, "  #%d re-ran %s -> %s\n", attempt.Iteration, strings.Join(attempt.Reran, ", "), verdict)
		}
	}

	if result.Status == pipeline.StatusFailed {
		if result.FailedStage != "" {
			fmt.Fprintf(out, "\nFailed in stage %s: %s\n", result.FailedStage, result.FailureReason)
		} else {
			fmt.Fprintf(out, "\nFailed: %s\n", result.FailureReason)
		}
	}
}

func renderScoreTable(report *rubric.ScoreReport) string {
	failing := make(map[string]struct{}, len(report.FailingMetrics))
	for _, name := range report.FailingMetrics {
		failing[name] = struct{}{}
	}

	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := newResultTable("Metric", "Score", "Weight", "").numeric(2, 3)
	for _, name := range names {
		note := ""
		if _, ok := failing[name]; ok {
			note = "failing"
		}
		tbl.row(name, formatScore(report.Metrics[name]), formatScore(report.Weights[name]), note)
	}
	verdict := "FAIL"
	if report.Pass {
		verdict = "PASS"
	}
	tbl.row("composite", formatScore(report.Composite), "",
		fmt.Sprintf("%s (min %s)", verdict, formatScore(report.MinTotal)))

	return tbl.render()
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func composeBundle(result *pipeline.RunResult) *song.Bundle {
	for i := len(result.Artifacts) - 1; i >= 0; i-- {
		art := result.Artifacts[i]
		if art.StageName != stages.StageCompose {
			continue
		}
		if bundle, ok := art.Payload.(song.Bundle); ok {
			return &bundle
		}
	}
	return nil
}
