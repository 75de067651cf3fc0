package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/hls"
	"briefcast/internal/logging"
	"briefcast/internal/services"
)

// PackageAdapter converts each variant's WAV into an HLS rendition on disk.
type PackageAdapter struct {
	store    *content.Store
	packager *hls.Packager
	layout   Layout
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPackageAdapter constructs the packaging stage adapter.
func NewPackageAdapter(store *content.Store, packager *hls.Packager, layout Layout, timeout time.Duration, logger *slog.Logger) *PackageAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PackageAdapter{
		store:    store,
		packager: packager,
		layout:   layout,
		timeout:  timeout,
		logger:   logger.With(logging.String(logging.FieldComponent, "package")),
	}
}

func (a *PackageAdapter) Kind() Kind             { return KindPackage }
func (a *PackageAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: every variant with synthesized audio gets packaged.
func (a *PackageAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	return languagesWithArtifact(ctx, a.store, articleID, func(item *content.Item) bool {
		return item.AudioPath != ""
	})
}

// Done: the playlist from a prior run is still on disk. The rendition is
// not persisted in the store; the staging layout is the artifact.
func (a *PackageAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	_, err := os.Stat(a.layout.PlaylistPath(articleID, language))
	return err == nil, nil
}

// Execute packages the variant's audio into the staging HLS directory.
func (a *PackageAdapter) Execute(ctx context.Context, articleID, language string) error {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return err
	}
	if variant == nil || variant.AudioPath == "" {
		return services.Wrap(services.ErrInconsistentState, "package", "load", "variant has no audio path", nil)
	}

	result, err := a.packager.Package(ctx, variant.AudioPath, a.layout.HLSDir(articleID, language))
	if err != nil {
		return err
	}

	a.logger.Info("variant packaged",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language),
		logging.Int("segments", len(result.SegmentPaths)))
	return nil
}
