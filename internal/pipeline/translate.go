package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/services/translation"
)

// TranslateAdapter writes target-language variants of the source article.
type TranslateAdapter struct {
	store      *content.Store
	translator translation.Translator
	sourceLang string
	targets    []string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewTranslateAdapter constructs the translation stage adapter.
func NewTranslateAdapter(store *content.Store, translator translation.Translator, sourceLang string, targets []string, timeout time.Duration, logger *slog.Logger) *TranslateAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TranslateAdapter{
		store:      store,
		translator: translator,
		sourceLang: sourceLang,
		targets:    append([]string(nil), targets...),
		timeout:    timeout,
		logger:     logger.With(logging.String(logging.FieldComponent, "translate")),
	}
}

func (a *TranslateAdapter) Kind() Kind             { return KindTranslate }
func (a *TranslateAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: translation always targets every configured language.
func (a *TranslateAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	return append([]string(nil), a.targets...), nil
}

// Done reports whether the target variant already has a translated body.
func (a *TranslateAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return false, err
	}
	return variant != nil && strings.TrimSpace(variant.Body) != "", nil
}

// Execute translates the source title and body and upserts the variant row.
func (a *TranslateAdapter) Execute(ctx context.Context, articleID, language string) error {
	source, err := a.store.Get(ctx, articleID, a.sourceLang)
	if err != nil {
		return err
	}
	if source == nil {
		return services.Wrap(services.ErrNotFound, "translate", "load", "source article missing", nil)
	}

	title, err := a.translator.Translate(ctx, source.Title, a.sourceLang, language)
	if err != nil {
		return err
	}
	body, err := a.translator.Translate(ctx, source.Body, a.sourceLang, language)
	if err != nil {
		return err
	}

	variant := &content.Item{
		ID:       articleID,
		Language: language,
		Category: source.Category,
		Stage:    source.Stage,
		Title:    title,
		Body:     body,
	}
	if existing, err := a.store.Get(ctx, articleID, language); err != nil {
		return err
	} else if existing != nil {
		existing.Title = title
		existing.Body = body
		variant = existing
	}
	if err := a.store.Upsert(ctx, variant); err != nil {
		return err
	}

	a.logger.Info("variant translated",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language))
	return nil
}
