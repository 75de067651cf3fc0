package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must be set")
	}

	if c.Languages.Source == "" {
		problems = append(problems, "languages.source must be set")
	} else if _, err := language.Parse(c.Languages.Source); err != nil {
		problems = append(problems, fmt.Sprintf("languages.source %q is not a valid BCP-47 tag", c.Languages.Source))
	}
	if len(c.Languages.Targets) == 0 {
		problems = append(problems, "languages.targets must list at least one target language")
	}
	for _, target := range c.Languages.Targets {
		if _, err := language.Parse(target); err != nil {
			problems = append(problems, fmt.Sprintf("languages.targets entry %q is not a valid BCP-47 tag", target))
			continue
		}
		if target == c.Languages.Source {
			problems = append(problems, fmt.Sprintf("languages.targets must not include the source language %q", target))
		}
	}

	if c.TTS.MaxChunkBytes <= 0 {
		problems = append(problems, "tts.max_chunk_bytes must be positive")
	}
	if c.TTS.ChunkPauseMilli < 0 {
		problems = append(problems, "tts.chunk_pause_millis must not be negative")
	}
	for _, target := range c.Languages.Targets {
		if _, ok := c.VoiceForLanguage(target); !ok {
			problems = append(problems, fmt.Sprintf("tts.voices has no entry for target language %q", target))
		}
	}
	if c.Languages.Source != "" {
		if _, ok := c.VoiceForLanguage(c.Languages.Source); !ok {
			problems = append(problems, fmt.Sprintf("tts.voices has no entry for source language %q", c.Languages.Source))
		}
	}

	if c.HLS.SegmentSeconds <= 0 {
		problems = append(problems, "hls.segment_seconds must be positive")
	}
	if strings.TrimSpace(c.HLS.FFmpegBinary) == "" {
		problems = append(problems, "hls.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Upload.RcloneBinary) == "" {
		problems = append(problems, "upload.rclone_binary must be set")
	}

	if c.Pipeline.MaxStepsPerItem <= 0 {
		problems = append(problems, "pipeline.max_steps_per_item must be positive")
	}
	if c.Pipeline.LanguageConcurrency <= 0 {
		problems = append(problems, "pipeline.language_concurrency must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
