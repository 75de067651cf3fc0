package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"briefcast/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("config file should not exist")
	}
	if resolved == "" {
		t.Fatal("resolved path should be reported")
	}
	if cfg.TTS.MaxChunkBytes != 4800 {
		t.Fatalf("default chunk ceiling = %d, want 4800", cfg.TTS.MaxChunkBytes)
	}
	if cfg.Pipeline.MaxStepsPerItem != 10 {
		t.Fatalf("default step cap = %d, want 10", cfg.Pipeline.MaxStepsPerItem)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[languages]
source = "KO"
targets = ["EN", "ja", "en", ""]

[upload]
public_base_url = "https://cdn.example.com/audio/"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file should exist")
	}
	if cfg.Languages.Source != "ko" {
		t.Fatalf("source not lowercased: %q", cfg.Languages.Source)
	}
	if got := strings.Join(cfg.Languages.Targets, ","); got != "en,ja" {
		t.Fatalf("targets not deduped/normalized: %q", got)
	}
	if cfg.Upload.PublicBaseURL != "https://cdn.example.com/audio" {
		t.Fatalf("public base url not trimmed: %q", cfg.Upload.PublicBaseURL)
	}
}

func TestLoadAppliesEnvSecrets(t *testing.T) {
	t.Setenv("BRIEFCAST_TTS_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TTS.APIKey != "from-env" {
		t.Fatalf("TTS api key = %q, want env overlay", cfg.TTS.APIKey)
	}
}

func TestValidateRejectsBadLanguages(t *testing.T) {
	cfg := config.Default()
	cfg.Languages.Targets = []string{"not a tag"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "BCP-47") {
		t.Fatalf("expected BCP-47 validation failure, got %v", err)
	}
}

func TestValidateRejectsSourceInTargets(t *testing.T) {
	cfg := config.Default()
	cfg.Languages.Targets = append(cfg.Languages.Targets, cfg.Languages.Source)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected failure when targets include source language")
	}
}

func TestValidateRequiresVoicePerTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Languages.Targets = append(cfg.Languages.Targets, "de")
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "tts.voices") {
		t.Fatalf("expected missing voice failure, got %v", err)
	}
}

func TestValidateRejectsNonPositiveCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.TTS.MaxChunkBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected failure for zero chunk ceiling")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
