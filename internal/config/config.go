package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Languages describes the source language and translation fan-out targets.
type Languages struct {
	Source  string   `toml:"source"`
	Targets []string `toml:"targets"`
}

// Translation contains configuration for the translation API.
type Translation struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key" env:"BRIEFCAST_TRANSLATION_API_KEY"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Voice names the synthesis voice used for one language.
type Voice struct {
	Language string `toml:"language"`
	Name     string `toml:"name"`
}

// TTS contains configuration for the speech synthesis API.
//
// MaxChunkBytes bounds the UTF-8 byte length of a single synthesis request
// body. The provider enforces a 5,000-byte hard limit per request; the
// default of 4,800 leaves margin for request framing so a provider-side
// accounting difference never rejects a chunk. Treat it as a tunable, not a
// semantic constant.
type TTS struct {
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key" env:"BRIEFCAST_TTS_API_KEY"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	MaxChunkBytes   int     `toml:"max_chunk_bytes"`
	ChunkPauseMilli int     `toml:"chunk_pause_millis"`
	Voices          []Voice `toml:"voices"`
}

// HLS contains configuration for audio packaging.
type HLS struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	SegmentSeconds int    `toml:"segment_seconds"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Upload contains configuration for the rclone-backed audio uploader.
type Upload struct {
	RcloneBinary   string `toml:"rclone_binary"`
	Remote         string `toml:"remote"`
	PublicBaseURL  string `toml:"public_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Metadata contains configuration for the S3 metadata uploader.
type Metadata struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	KeyPrefix       string `toml:"key_prefix"`
	AccessKeyID     string `toml:"access_key_id" env:"BRIEFCAST_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"BRIEFCAST_S3_SECRET_ACCESS_KEY"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Hook contains configuration for social-hook generation.
type Hook struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key" env:"BRIEFCAST_HOOK_API_KEY"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains engine tuning knobs.
type Pipeline struct {
	MaxStepsPerItem     int `toml:"max_steps_per_item"`
	LanguageConcurrency int `toml:"language_concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for briefcast.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Languages   Languages   `toml:"languages"`
	Translation Translation `toml:"translation"`
	TTS         TTS         `toml:"tts"`
	HLS         HLS         `toml:"hls"`
	Upload      Upload      `toml:"upload"`
	Metadata    Metadata    `toml:"metadata"`
	Hook        Hook        `toml:"hook"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/briefcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has secrets overlaid from the environment and all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, "", false, fmt.Errorf("env overlay: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("briefcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the content database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "content.db")
}

// RunLockPath returns the flock path guarding batch runs.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.DataDir, "run.lock")
}

// VoiceForLanguage returns the configured synthesis voice for a language.
func (c *Config) VoiceForLanguage(language string) (Voice, bool) {
	for _, voice := range c.TTS.Voices {
		if strings.EqualFold(strings.TrimSpace(voice.Language), strings.TrimSpace(language)) {
			return voice, true
		}
	}
	return Voice{}, false
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Languages.Source = strings.ToLower(strings.TrimSpace(c.Languages.Source))
	targets := make([]string, 0, len(c.Languages.Targets))
	seen := make(map[string]struct{}, len(c.Languages.Targets))
	for _, target := range c.Languages.Targets {
		normalized := strings.ToLower(strings.TrimSpace(target))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		targets = append(targets, normalized)
	}
	c.Languages.Targets = targets

	c.Upload.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Upload.PublicBaseURL), "/")
	c.Metadata.KeyPrefix = strings.Trim(strings.TrimSpace(c.Metadata.KeyPrefix), "/")
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
