package testsupport

import (
	"path/filepath"
	"testing"

	"briefcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Translation.BaseURL = "http://127.0.0.1:0"
	cfgVal.Translation.APIKey = "test"
	cfgVal.TTS.BaseURL = "http://127.0.0.1:0"
	cfgVal.TTS.APIKey = "test"
	cfgVal.TTS.ChunkPauseMilli = 0
	cfgVal.Upload.Remote = "cdn:briefcast-test"
	cfgVal.Upload.PublicBaseURL = "https://cdn.test.invalid/audio"
	cfgVal.Metadata.Bucket = "briefcast-test"
	cfgVal.Hook.BaseURL = "http://127.0.0.1:0"
	cfgVal.Hook.APIKey = "test"

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLanguages overrides the source language and fan-out targets.
func WithLanguages(source string, targets ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Languages.Source = source
		b.cfg.Languages.Targets = targets
	}
}

// WithVoices replaces the configured synthesis voices.
func WithVoices(voices ...config.Voice) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.Voices = voices
	}
}

// WithChunkCeiling overrides the synthesis chunk byte ceiling.
func WithChunkCeiling(maxBytes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.MaxChunkBytes = maxBytes
	}
}
