package pipeline

import (
	"context"
	"log/slog"
	"time"

	"briefcast/internal/config"
	"briefcast/internal/content"
	"briefcast/internal/hls"
	"briefcast/internal/services/hook"
	"briefcast/internal/services/translation"
	"briefcast/internal/services/tts"
	"briefcast/internal/synthesis"
	"briefcast/internal/upload"
)

// BuildEngine wires the full engine from configuration: external service
// clients, the six stage adapters, the executor, and the engine itself.
func BuildEngine(ctx context.Context, cfg *config.Config, store *content.Store, logger *slog.Logger) (*Engine, error) {
	layout := Layout{StagingDir: cfg.Paths.StagingDir}

	translator, err := translation.New(
		cfg.Translation.APIKey,
		cfg.Translation.BaseURL,
		seconds(cfg.Translation.TimeoutSeconds),
	)
	if err != nil {
		return nil, err
	}

	synthClient, err := tts.New(
		cfg.TTS.APIKey,
		cfg.TTS.BaseURL,
		seconds(cfg.TTS.TimeoutSeconds),
	)
	if err != nil {
		return nil, err
	}
	synthAdapter, err := synthesis.New(
		synthClient,
		cfg.TTS.MaxChunkBytes,
		time.Duration(cfg.TTS.ChunkPauseMilli)*time.Millisecond,
		logger,
	)
	if err != nil {
		return nil, err
	}

	packager := hls.NewPackager(cfg.HLS.FFmpegBinary, cfg.HLS.SegmentSeconds)

	cdn, err := upload.NewCDNUploader(cfg.Upload.RcloneBinary, cfg.Upload.Remote, cfg.Upload.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	meta, err := upload.NewMetadataUploader(ctx, upload.MetadataConfig{
		Bucket:          cfg.Metadata.Bucket,
		Region:          cfg.Metadata.Region,
		Endpoint:        cfg.Metadata.Endpoint,
		KeyPrefix:       cfg.Metadata.KeyPrefix,
		AccessKeyID:     cfg.Metadata.AccessKeyID,
		SecretAccessKey: cfg.Metadata.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	hookClient, err := hook.New(
		cfg.Hook.APIKey,
		cfg.Hook.BaseURL,
		cfg.Hook.Model,
		seconds(cfg.Hook.TimeoutSeconds),
	)
	if err != nil {
		return nil, err
	}

	adapters := []Adapter{
		NewTranslateAdapter(store, translator, cfg.Languages.Source, cfg.Languages.Targets, seconds(cfg.Translation.TimeoutSeconds), logger),
		NewSynthesizeAdapter(store, synthAdapter, cfg, layout, seconds(cfg.TTS.TimeoutSeconds), logger),
		NewPackageAdapter(store, packager, layout, seconds(cfg.HLS.TimeoutSeconds), logger),
		NewUploadAudioAdapter(store, cdn, layout, seconds(cfg.Upload.TimeoutSeconds), logger),
		NewUploadMetadataAdapter(store, meta, seconds(cfg.Metadata.TimeoutSeconds), logger),
		NewHookAdapter(store, hookClient, seconds(cfg.Hook.TimeoutSeconds), logger),
	}

	executor, err := NewExecutor(store, cfg.Languages.Source, adapters, cfg.Pipeline.LanguageConcurrency, logger)
	if err != nil {
		return nil, err
	}
	return NewEngine(store, executor, cfg.Languages.Source, cfg.Pipeline.MaxStepsPerItem, cfg.RunLockPath(), logger)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
