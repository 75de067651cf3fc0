package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
)

// LanguageOutcome is the result of one language's run within one stage.
type LanguageOutcome struct {
	Language string
	Success  bool
	Skipped  bool
	Error    string
}

// StepResult describes one executor step for one article.
type StepResult struct {
	ArticleID string
	From      content.Stage
	To        content.Stage
	Advanced  bool
	Terminal  bool
	Languages []LanguageOutcome
}

// AllSucceeded reports whether every required language produced its
// artifact in this step.
func (r *StepResult) AllSucceeded() bool {
	for _, outcome := range r.Languages {
		if !outcome.Success {
			return false
		}
	}
	return true
}

// Executor runs one stage for one article: fan out across required
// languages, record per-language outcomes, advance the canonical stage
// only when every language succeeded.
type Executor struct {
	store       *content.Store
	sourceLang  string
	adapters    map[Kind]Adapter
	concurrency int
	logger      *slog.Logger
}

// NewExecutor wires the executor with its adapters. concurrency bounds
// how many languages run at once within a stage.
func NewExecutor(store *content.Store, sourceLang string, adapters []Adapter, concurrency int, logger *slog.Logger) (*Executor, error) {
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "executor", "new", "store required", nil)
	}
	if sourceLang == "" {
		return nil, services.Wrap(services.ErrConfiguration, "executor", "new", "source language required", nil)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	byKind := make(map[Kind]Adapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		byKind[adapter.Kind()] = adapter
	}
	return &Executor{
		store:       store,
		sourceLang:  sourceLang,
		adapters:    byKind,
		concurrency: concurrency,
		logger:      logger.With(logging.String(logging.FieldComponent, "executor")),
	}, nil
}

// ExecuteNext runs the next stage for the article identified by id. The
// canonical stage is read from the source-language row.
func (e *Executor) ExecuteNext(ctx context.Context, id string) (*StepResult, error) {
	source, err := e.store.Get(ctx, id, e.sourceLang)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, services.Wrap(services.ErrNotFound, "executor", "load", "article not found: "+id, nil)
	}

	transition, ok := TransitionFor(source.Stage)
	if !ok {
		return nil, services.Wrap(services.ErrInconsistentState, "executor", "lookup",
			"article is at unknown stage "+string(source.Stage), nil)
	}
	result := &StepResult{ArticleID: id, From: transition.From, To: transition.To}
	if transition.To == "" {
		result.Terminal = true
		return result, nil
	}

	adapter, ok := e.adapters[transition.Adapter]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "executor", "lookup",
			"no adapter registered for "+string(transition.Adapter), nil)
	}

	languages, err := adapter.FanOut(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(languages) == 0 {
		// A stage past reviewed always has at least one language carrying
		// the upstream artifact. An empty fan-out means the artifacts the
		// canonical stage promises are gone; advancing would publish
		// nothing.
		inconsistent := services.Wrap(services.ErrInconsistentState, string(adapter.Kind()), "fanout",
			"no language carries the upstream artifact for stage "+string(transition.From), nil)
		e.recordAttempt(ctx, transition.From, id, e.sourceLang, inconsistent)
		e.logger.Error("stage fan-out found no eligible languages",
			logging.String(logging.FieldArticleID, id),
			logging.String(logging.FieldStage, string(transition.From)))
		result.Languages = []LanguageOutcome{{Language: e.sourceLang, Error: inconsistent.Error()}}
		return result, nil
	}

	prior, err := e.store.Attempts(ctx, id, transition.From)
	if err != nil {
		return nil, err
	}

	result.Languages = e.runLanguages(ctx, adapter, transition.From, id, languages, prior)

	if result.AllSucceeded() {
		advanced, err := e.store.AdvanceStage(ctx, id, e.sourceLang, transition.From, transition.To)
		if err != nil {
			return nil, err
		}
		result.Advanced = advanced
		if !advanced {
			e.logger.Warn("stage advance lost to concurrent worker",
				logging.String(logging.FieldArticleID, id),
				logging.String(logging.FieldStage, string(transition.From)))
		}
	}
	return result, nil
}

// runLanguages executes the adapter for every required language, bounded
// by the configured concurrency. Failures are isolated per language.
func (e *Executor) runLanguages(ctx context.Context, adapter Adapter, stage content.Stage, id string, languages []string, prior map[string]content.Attempt) []LanguageOutcome {
	outcomes := make([]LanguageOutcome, len(languages))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, language := range languages {
		wg.Add(1)
		go func(i int, language string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = e.runLanguage(ctx, adapter, stage, id, language, prior[language])
		}(i, language)
	}
	wg.Wait()

	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].Language < outcomes[b].Language })
	return outcomes
}

func (e *Executor) runLanguage(ctx context.Context, adapter Adapter, stage content.Stage, id, language string, prior content.Attempt) LanguageOutcome {
	outcome := LanguageOutcome{Language: language}

	// A language that already succeeded is skipped, but only when its
	// artifact is really there. A successful attempt with a missing
	// artifact means the store and the adapter disagree.
	if prior.Success {
		done, err := adapter.Done(ctx, id, language)
		if err == nil && done {
			outcome.Success = true
			outcome.Skipped = true
			return outcome
		}
		inconsistent := services.Wrap(services.ErrInconsistentState, string(adapter.Kind()), "verify",
			"attempt recorded success but artifact is missing", err)
		e.recordAttempt(ctx, stage, id, language, inconsistent)
		outcome.Error = inconsistent.Error()
		return outcome
	}

	runCtx := ctx
	if timeout := adapter.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	runCtx = services.WithArticleID(runCtx, id)
	runCtx = services.WithLanguage(runCtx, language)
	runCtx = services.WithStage(runCtx, string(stage))

	err := adapter.Execute(runCtx, id, language)
	e.recordAttempt(ctx, stage, id, language, err)
	if err != nil {
		e.logger.Error("stage execution failed",
			logging.String(logging.FieldArticleID, id),
			logging.String(logging.FieldStage, string(stage)),
			logging.String(logging.FieldLanguage, language),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err))
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Success = true
	return outcome
}

// recordAttempt persists the per-language outcome. A bookkeeping failure
// is logged, never allowed to mask the stage result.
func (e *Executor) recordAttempt(ctx context.Context, stage content.Stage, id, language string, execErr error) {
	attempt := content.Attempt{
		ArticleID:   id,
		Language:    language,
		Stage:       stage,
		Success:     execErr == nil,
		AttemptedAt: time.Now().UTC(),
	}
	if execErr != nil {
		attempt.ErrorKind = services.Kind(execErr)
		attempt.ErrorDetail = execErr.Error()
	}
	if err := e.store.RecordAttempt(ctx, attempt); err != nil {
		e.logger.Error("recording attempt failed",
			logging.String(logging.FieldArticleID, id),
			logging.String(logging.FieldLanguage, language),
			logging.Error(err))
	}
}
