package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
)

// ErrRunInProgress reports that another process holds the batch run lock.
// Schedulers can test for it to tell contention from real failures.
var ErrRunInProgress = errors.New("another batch run is in progress")

// TransitionRecord is one attempted step in an item's audit trail.
type TransitionRecord struct {
	From    content.Stage
	To      content.Stage
	Success bool
}

// ItemReport is the audit trail one engine pass produced for one article.
type ItemReport struct {
	ArticleID   string
	Transitions []TransitionRecord
	FinalStage  content.Stage
	Error       string
}

// Advanced reports whether the item moved at least one stage in this pass.
func (r *ItemReport) Advanced() bool {
	for _, transition := range r.Transitions {
		if transition.Success {
			return true
		}
	}
	return false
}

// BatchReport aggregates one scan-and-process pass.
type BatchReport struct {
	Items    []*ItemReport
	Started  time.Time
	Finished time.Time
}

// Engine schedules executor steps: a single named item, or every eligible
// item in one batch pass.
type Engine struct {
	store       *content.Store
	executor    *Executor
	sourceLang  string
	maxSteps    int
	runLockPath string
	logger      *slog.Logger
}

// NewEngine constructs the engine. maxSteps caps how many transitions one
// item may attempt per pass; it bounds a runaway loop if a stage reports
// success without actually advancing state.
func NewEngine(store *content.Store, executor *Executor, sourceLang string, maxSteps int, runLockPath string, logger *slog.Logger) (*Engine, error) {
	if store == nil || executor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "new", "store and executor required", nil)
	}
	if maxSteps <= 0 {
		maxSteps = 10
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:       store,
		executor:    executor,
		sourceLang:  sourceLang,
		maxSteps:    maxSteps,
		runLockPath: runLockPath,
		logger:      logger.With(logging.String(logging.FieldComponent, "engine")),
	}, nil
}

// ProcessItem drives one article as far as it can go in this pass,
// stopping at the terminal stage, a failed step, or the step cap.
func (e *Engine) ProcessItem(ctx context.Context, id string) (*ItemReport, error) {
	report := &ItemReport{ArticleID: id}

	for step := 0; step < e.maxSteps; step++ {
		result, err := e.executor.ExecuteNext(ctx, id)
		if err != nil {
			return nil, err
		}
		if result.Terminal {
			report.FinalStage = result.From
			return report, nil
		}

		report.Transitions = append(report.Transitions, TransitionRecord{
			From:    result.From,
			To:      result.To,
			Success: result.Advanced,
		})
		if !result.Advanced {
			report.FinalStage = result.From
			return report, nil
		}
		report.FinalStage = result.To
	}

	e.logger.Warn("step cap reached",
		logging.String(logging.FieldArticleID, id),
		logging.Int("max_steps", e.maxSteps))
	return report, nil
}

// ProcessAll scans for every article whose canonical stage has a
// successor and drives each one, oldest first. One item's failure never
// aborts the rest. The run lock keeps two batch passes from overlapping
// on the same data directory.
func (e *Engine) ProcessAll(ctx context.Context) (*BatchReport, error) {
	if e.runLockPath != "" {
		lock := flock.New(e.runLockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "engine", "lock", "acquiring run lock failed", err)
		}
		if !locked {
			return nil, services.Wrap(services.ErrConfiguration, "engine", "lock", "", ErrRunInProgress)
		}
		defer func() { _ = lock.Unlock() }()
	}

	report := &BatchReport{Started: time.Now().UTC()}

	items, err := e.store.ItemsAtStage(ctx, e.sourceLang, NonTerminalStages()...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("batch pass starting", logging.Int("eligible", len(items)))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		itemReport, err := e.ProcessItem(ctx, item.ID)
		if err != nil {
			itemReport = &ItemReport{ArticleID: item.ID, FinalStage: item.Stage, Error: err.Error()}
			e.logger.Error("item processing failed",
				logging.String(logging.FieldArticleID, item.ID),
				logging.Error(err))
		}
		report.Items = append(report.Items, itemReport)
	}

	report.Finished = time.Now().UTC()
	e.logger.Info("batch pass finished",
		logging.Int("items", len(report.Items)),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)))
	return report, nil
}
