package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/upload"
)

// UploadAudioAdapter pushes each variant's HLS rendition to the CDN and
// records the resulting streaming URLs.
type UploadAudioAdapter struct {
	store   *content.Store
	cdn     *upload.CDNUploader
	layout  Layout
	timeout time.Duration
	logger  *slog.Logger
}

// NewUploadAudioAdapter constructs the CDN upload stage adapter.
func NewUploadAudioAdapter(store *content.Store, cdn *upload.CDNUploader, layout Layout, timeout time.Duration, logger *slog.Logger) *UploadAudioAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &UploadAudioAdapter{
		store:   store,
		cdn:     cdn,
		layout:  layout,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "upload-audio")),
	}
}

func (a *UploadAudioAdapter) Kind() Kind             { return KindUploadAudio }
func (a *UploadAudioAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: every variant whose packaged playlist is on disk gets uploaded.
func (a *UploadAudioAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	variants, err := a.store.Variants(ctx, articleID)
	if err != nil {
		return nil, err
	}
	var languages []string
	for _, variant := range variants {
		if _, err := os.Stat(a.layout.PlaylistPath(articleID, variant.Language)); err == nil {
			languages = append(languages, variant.Language)
		}
	}
	return languages, nil
}

// Done: the variant already carries streaming URLs.
func (a *UploadAudioAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return false, err
	}
	return variant != nil && variant.StreamingURLs != nil && variant.StreamingURLs.Playlist != "", nil
}

// Execute uploads the rendition directory and persists its public URLs.
// Re-running overwrites the same remote keys, so a retry never duplicates.
func (a *UploadAudioAdapter) Execute(ctx context.Context, articleID, language string) error {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return err
	}
	if variant == nil {
		return services.Wrap(services.ErrInconsistentState, "upload-audio", "load", "variant row missing", nil)
	}

	urls, err := a.cdn.UploadDirectory(ctx, a.layout.HLSDir(articleID, language), a.layout.RemotePrefix(articleID, language))
	if err != nil {
		return err
	}

	playlist, ok := urls["index.m3u8"]
	if !ok {
		return services.Wrap(services.ErrInconsistentState, "upload-audio", "collect", "rendition has no playlist", nil)
	}
	var segments []string
	for name, url := range urls {
		if strings.HasPrefix(name, "segment_") && path.Ext(name) == ".ts" {
			segments = append(segments, url)
		}
	}
	sort.Strings(segments)

	variant.StreamingURLs = &content.StreamingURLs{Playlist: playlist, Segments: segments}
	if err := a.store.Update(ctx, variant); err != nil {
		return err
	}

	a.logger.Info("variant audio uploaded",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language),
		logging.Int("segments", len(segments)))
	return nil
}

// UploadMetadataAdapter publishes the per-variant metadata document.
type UploadMetadataAdapter struct {
	store   *content.Store
	meta    *upload.MetadataUploader
	timeout time.Duration
	logger  *slog.Logger
}

// NewUploadMetadataAdapter constructs the metadata upload stage adapter.
func NewUploadMetadataAdapter(store *content.Store, meta *upload.MetadataUploader, timeout time.Duration, logger *slog.Logger) *UploadMetadataAdapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &UploadMetadataAdapter{
		store:   store,
		meta:    meta,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "upload-metadata")),
	}
}

func (a *UploadMetadataAdapter) Kind() Kind             { return KindUploadMetadata }
func (a *UploadMetadataAdapter) Timeout() time.Duration { return a.timeout }

// FanOut: every variant with streaming URLs gets a metadata document.
func (a *UploadMetadataAdapter) FanOut(ctx context.Context, articleID string) ([]string, error) {
	return languagesWithArtifact(ctx, a.store, articleID, func(item *content.Item) bool {
		return item.StreamingURLs != nil && item.StreamingURLs.Playlist != ""
	})
}

// Done: the variant already carries a metadata URL.
func (a *UploadMetadataAdapter) Done(ctx context.Context, articleID, language string) (bool, error) {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return false, err
	}
	return variant != nil && variant.MetadataURL != "", nil
}

// Execute writes the metadata object and records its URL. The object key
// is deterministic, so re-running overwrites in place.
func (a *UploadMetadataAdapter) Execute(ctx context.Context, articleID, language string) error {
	variant, err := a.store.Get(ctx, articleID, language)
	if err != nil {
		return err
	}
	if variant == nil {
		return services.Wrap(services.ErrInconsistentState, "upload-metadata", "load", "variant row missing", nil)
	}

	url, err := a.meta.Upload(ctx, variant)
	if err != nil {
		return err
	}

	variant.MetadataURL = url
	if err := a.store.Update(ctx, variant); err != nil {
		return err
	}

	a.logger.Info("variant metadata uploaded",
		logging.String(logging.FieldArticleID, articleID),
		logging.String(logging.FieldLanguage, language),
		logging.String("url", url))
	return nil
}
