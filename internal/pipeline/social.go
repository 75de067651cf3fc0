package pipeline

import (
	"context"
	"log/slog"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/services/hook"
)

// HookAdapter generates the per-variant social hook, the last stage before
// an article is published.
type HookAdapter struct {
	store   *content.Store
	gen     hook.Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewHookAdapter constructs the social-hook stage adapter.
func NewHookAdapter(store *content.Store, gen hook.Generator, timeout time.Duration, logger *slog.Logger) *HookAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HookAdapter{
		store:   store,
		gen:     gen,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "hook")),
	}
}

func (a *HookAdapter) Kind() Kind             { return KindHook }
func (a *HookAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: every variant with published metadata gets a hook.
func (a *HookAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	return languagesWithArtifact(ctx, a.store, articleID, func(item *content.Item) bool {
		return item.MetadataURL != ""
	})
}

// Done: the variant already carries a hook.
func (a *HookAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return false, err
	}
	return variant != nil && variant.SocialHook != "", nil
}

// Execute generates and stores the hook for one variant.
func (a *HookAdapter) Execute(ctx context.Context, articleID, language string) error {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return err
	}
	if variant == nil {
		return services.Wrap(services.ErrInconsistentState, "hook", "load", "variant row missing", nil)
	}

	text, err := a.gen.Generate(ctx, variant.Title, variant.Body, language)
	if err != nil {
		return err
	}

	variant.SocialHook = text
	if err := a.store.Update(ctx, variant); err != nil {
		return err
	}

	a.logger.Info("variant hook generated",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language))
	return nil
}

var (
	_ Adapter = (*TranslateAdapter)(nil)
	_ Adapter = (*SynthesizeAdapter)(nil)
	_ Adapter = (*PackageAdapter)(nil)
	_ Adapter = (*UploadAudioAdapter)(nil)
	_ Adapter = (*UploadMetadataAdapter)(nil)
	_ Adapter = (*HookAdapter)(nil)
)
