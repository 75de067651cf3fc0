package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"briefcast/internal/config"
	"briefcast/internal/content"
	"briefcast/internal/pipeline"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every eligible article in one batch pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withEngine(runCtx, func(cfg *config.Config, store *content.Store, engine *pipeline.Engine) error {
				report, err := engine.ProcessAll(runCtx)
				if err != nil {
					return err
				}
				renderBatchReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <article-id>",
		Short: "Drive one article through its remaining stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withEngine(runCtx, func(cfg *config.Config, store *content.Store, engine *pipeline.Engine) error {
				report, err := engine.ProcessItem(runCtx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				renderItemReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
}

func renderBatchReport(out io.Writer, report *pipeline.BatchReport) {
	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No eligible articles.")
		return
	}

	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		advanced := 0
		for _, transition := range item.Transitions {
			if transition.Success {
				advanced++
			}
		}
		note := item.Error
		if note == "" && len(item.Transitions) > 0 {
			last := item.Transitions[len(item.Transitions)-1]
			if !last.Success {
				note = fmt.Sprintf("stalled at %s", last.From)
			}
		}
		rows = append(rows, []string{
			item.ArticleID,
			string(item.FinalStage),
			strconv.Itoa(advanced),
			note,
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"ARTICLE", "STAGE", "ADVANCED", "NOTE"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Processed %d article(s) in %s\n",
		len(report.Items), report.Finished.Sub(report.Started).Round(10*time.Millisecond))
}

func renderItemReport(out io.Writer, report *pipeline.ItemReport, colorize bool) {
	fmt.Fprintf(out, "Article %s\n", report.ArticleID)
	if len(report.Transitions) == 0 {
		fmt.Fprintf(out, "  already at terminal stage %s\n", report.FinalStage)
		return
	}
	for _, transition := range report.Transitions {
		status := "ok"
		color := ansiGreen
		if !transition.Success {
			status = "failed"
			color = ansiRed
		}
		line := fmt.Sprintf("  %-18s -> %-18s %s", transition.From, transition.To, status)
		if colorize {
			line = color + line + ansiReset
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Final stage: %s\n", report.FinalStage)
}
