package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"briefcast/internal/config"
	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/services/tts"
	"briefcast/internal/synthesis"
)

// SynthesizeAdapter renders each language variant's body to a WAV file.
type SynthesizeAdapter struct {
	store      *content.Store
	synth      *synthesis.Adapter
	cfg        *config.Config
	layout     Layout
	sourceLang string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSynthesizeAdapter constructs the synthesis stage adapter.
func NewSynthesizeAdapter(store *content.Store, synth *synthesis.Adapter, cfg *config.Config, layout Layout, timeout time.Duration, logger *slog.Logger) *SynthesizeAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SynthesizeAdapter{
		store:      store,
		synth:      synth,
		cfg:        cfg,
		layout:     layout,
		sourceLang: cfg.Languages.Source,
		timeout:    timeout,
		logger:     logger.With(logging.String(logging.FieldComponent, "synthesize")),
	}
}

func (a *SynthesizeAdapter) Kind() Kind             { return KindSynthesize }
func (a *SynthesizeAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: every variant that has a body needs audio, source included.
func (a *SynthesizeAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	return languagesWithArtifact(ctx, a.store, articleID, func(item *content.Item) bool {
		return strings.TrimSpace(item.Body) != ""
	})
}

// Done: the variant points at an audio file that exists on disk.
func (a *SynthesizeAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return false, err
	}
	if variant == nil || variant.AudioPath == "" {
		return false, nil
	}
	if _, err := os.Stat(variant.AudioPath); err != nil {
		return false, nil
	}
	return true, nil
}

// Execute synthesizes the variant body and records the audio path.
func (a *SynthesizeAdapter) Execute(ctx context.Context, articleID, language string) error {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return err
	}
	if variant == nil {
		return services.Wrap(services.ErrInconsistentState, "synthesize", "load", "variant row missing", nil)
	}

	voice, ok := a.cfg.VoiceForLanguage(language)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "synthesize", "voice", "no voice configured for language "+language, nil)
	}

	audioPath := a.layout.AudioPath(articleID, language)
	profile := tts.VoiceProfile{LanguageCode: voice.Language, VoiceName: voice.Name}
	if err := a.synth.Synthesize(ctx, variant.Body, profile, audioPath); err != nil {
		return err
	}

	variant.AudioPath = audioPath
	if err := a.store.Update(ctx, variant); err != nil {
		return err
	}

	a.logger.Info("variant audio ready",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language),
		logging.String("path", audioPath))
	return nil
}

// languagesWithArtifact lists languages whose variant row satisfies the
// given predicate, in stable store order.
func languagesWithArtifact(ctx context.Context, store *content.Store, articleID string, has func(*content.Item) bool) ([]string, error) {
	variants, err := store.Variants(ctx, articleID)
	if err != nil {
		return nil, err
	}
	var languages []string
	for _, variant := range variants {
		if has(variant) {
			languages = append(languages, variant.Language)
		}
	}
	return languages, nil
}
