package config

const (
	defaultDataDir         = "~/.local/share/briefcast"
	defaultStagingDir      = "~/.local/share/briefcast/staging"
	defaultLogDir          = "~/.local/share/briefcast/logs"
	defaultSourceLanguage  = "ko"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultHTTPTimeout     = 30
	defaultTTSTimeout      = 120
	defaultFFmpegBinary    = "ffmpeg"
	defaultRcloneBinary    = "rclone"
	defaultSegmentSeconds  = 10
	defaultUploadTimeout   = 300
	defaultMetadataTimeout = 60
	defaultHookModel       = "gpt-4o-mini"
	defaultHookTimeout     = 60
	defaultMaxSteps        = 10
	defaultLangConcurrency = 3

	// Provider hard limit is 5,000 bytes per synthesis request; see the TTS
	// struct doc for the margin rationale.
	defaultMaxChunkBytes   = 4800
	defaultChunkPauseMilli = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Languages: Languages{
			Source:  defaultSourceLanguage,
			Targets: []string{"en", "ja"},
		},
		Translation: Translation{
			TimeoutSeconds: defaultHTTPTimeout,
		},
		TTS: TTS{
			TimeoutSeconds:  defaultTTSTimeout,
			MaxChunkBytes:   defaultMaxChunkBytes,
			ChunkPauseMilli: defaultChunkPauseMilli,
			Voices: []Voice{
				{Language: "ko", Name: "ko-KR-Neural2-A"},
				{Language: "en", Name: "en-US-Neural2-J"},
				{Language: "ja", Name: "ja-JP-Neural2-C"},
			},
		},
		HLS: HLS{
			FFmpegBinary:   defaultFFmpegBinary,
			SegmentSeconds: defaultSegmentSeconds,
			TimeoutSeconds: defaultTTSTimeout,
		},
		Upload: Upload{
			RcloneBinary:   defaultRcloneBinary,
			TimeoutSeconds: defaultUploadTimeout,
		},
		Metadata: Metadata{
			Region:         "us-east-1",
			TimeoutSeconds: defaultMetadataTimeout,
		},
		Hook: Hook{
			Model:          defaultHookModel,
			TimeoutSeconds: defaultHookTimeout,
		},
		Pipeline: Pipeline{
			MaxStepsPerItem:     defaultMaxSteps,
			LanguageConcurrency: defaultLangConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
