package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"briefcast/internal/config"
	"briefcast/internal/content"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the article queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var bodyFile string
	var category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a reviewed article in the source language",
		RunE: func(cmd *cobra.Command, args []string) error {
			title = strings.TrimSpace(title)
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			body, err := readBody(bodyFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(body) == "" {
				return fmt.Errorf("article body is empty")
			}

			return ctx.withStore(func(cfg *config.Config, store *content.Store) error {
				item := &content.Item{
					ID:       uuid.NewString(),
					Language: cfg.Languages.Source,
					Category: strings.TrimSpace(category),
					Stage:    content.StageReviewed,
					Title:    title,
					Body:     body,
				}
				if err := store.Create(cmd.Context(), item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued article %s at stage %s\n", item.ID, item.Stage)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Article title")
	cmd.Flags().StringVarP(&bodyFile, "body-file", "f", "", "Read the article body from a file (- for stdin)")
	cmd.Flags().StringVar(&category, "category", "", "Article category")
	return cmd
}

func readBody(bodyFile string, stdin io.Reader) (string, error) {
	switch strings.TrimSpace(bodyFile) {
	case "":
		return "", fmt.Errorf("--body-file is required")
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	default:
		expanded, err := config.ExpandPath(bodyFile)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", fmt.Errorf("read body file: %w", err)
		}
		return string(data), nil
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string
	var categoryFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued articles and their canonical stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *content.Store) error {
				filter := content.ListFilter{
					Language: cfg.Languages.Source,
					Category: strings.TrimSpace(categoryFlag),
				}
				if trimmed := strings.TrimSpace(stageFlag); trimmed != "" {
					stage, ok := content.ParseStage(trimmed)
					if !ok {
						return fmt.Errorf("unknown stage %q", trimmed)
					}
					filter.Stage = stage
				}

				items, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						string(item.Stage),
						item.Category,
						truncateTitle(item.Title, 48),
						item.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ARTICLE", "STAGE", "CATEGORY", "TITLE", "QUEUED"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Only show articles at this stage")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Only show articles in this category")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [article-id]",
		Short: "Show stage counts, or one article's per-language progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *content.Store) error {
				if len(args) == 1 {
					return renderArticleStatus(cmd.OutOrStdout(), cmd, store, strings.TrimSpace(args[0]), cfg)
				}

				counts, err := store.StageStats(cmd.Context(), cfg.Languages.Source)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(counts))
				for _, stage := range content.AllStages() {
					if n, ok := counts[stage]; ok {
						rows = append(rows, []string{string(stage), fmt.Sprintf("%d", n)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"STAGE", "ARTICLES"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", counts.Total())
				return nil
			})
		},
	}
}

func renderArticleStatus(out io.Writer, cmd *cobra.Command, store *content.Store, id string, cfg *config.Config) error {
	source, err := store.Get(cmd.Context(), id, cfg.Languages.Source)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("article %s not found", id)
	}

	fmt.Fprintf(out, "Article %s\n", id)
	fmt.Fprintf(out, "  Title:    %s\n", source.Title)
	fmt.Fprintf(out, "  Category: %s\n", source.Category)
	fmt.Fprintf(out, "  Stage:    %s\n", source.Stage)

	attempts, err := store.Attempts(cmd.Context(), id, source.Stage)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintln(out, "  No attempts recorded for the current stage yet.")
		return nil
	}

	rows := make([][]string, 0, len(attempts))
	variants, err := store.Variants(cmd.Context(), id)
	if err != nil {
		return err
	}
	for _, variant := range variants {
		attempt, ok := attempts[variant.Language]
		if !ok {
			continue
		}
		outcome := "ok"
		detail := ""
		if !attempt.Success {
			outcome = attempt.ErrorKind
			detail = truncateTitle(attempt.ErrorDetail, 60)
		}
		rows = append(rows, []string{
			variant.Language,
			outcome,
			attempt.AttemptedAt.Local().Format("2006-01-02 15:04:05"),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"LANGUAGE", "OUTCOME", "ATTEMPTED", "DETAIL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <article-id>",
		Short: "Clear failed attempts so the next pass re-runs them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *content.Store) error {
				source, err := store.Get(cmd.Context(), id, cfg.Languages.Source)
				if err != nil {
					return err
				}
				if source == nil {
					return fmt.Errorf("article %s not found", id)
				}

				cleared, err := store.ClearFailedAttempts(cmd.Context(), id, source.Stage)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed attempt(s) for article %s at stage %s\n",
					cleared, id, source.Stage)
				return nil
			})
		},
	}
}

func truncateTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
