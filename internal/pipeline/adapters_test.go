package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"briefcast/internal/content"
	"briefcast/internal/pipeline"
	"briefcast/internal/services/tts"
	"briefcast/internal/synthesis"
	"briefcast/internal/testsupport"
	"briefcast/internal/wavutil"
)

type fakeTranslator struct {
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls++
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}

func TestTranslateAdapterCreatesVariants(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)

	translator := &fakeTranslator{}
	adapter := pipeline.NewTranslateAdapter(store, translator, "ko", []string{"en", "ja"}, time.Second, nil)

	langs, err := adapter.FanOut(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(langs) != 2 {
		t.Fatalf("fan-out = %v", langs)
	}

	if err := adapter.Execute(context.Background(), "a1", "en"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	variant, err := store.Get(context.Background(), "a1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if variant == nil {
		t.Fatal("variant row not created")
	}
	if variant.Title != "[en] 제목" || variant.Body != "[en] 본문" {
		t.Fatalf("variant = %q / %q", variant.Title, variant.Body)
	}

	done, err := adapter.Done(context.Background(), "a1", "en")
	if err != nil || !done {
		t.Fatalf("Done = %v, %v", done, err)
	}
	if done, _ := adapter.Done(context.Background(), "a1", "ja"); done {
		t.Fatal("ja should not be done")
	}

	// Re-running overwrites the same row instead of duplicating.
	if err := adapter.Execute(context.Background(), "a1", "en"); err != nil {
		t.Fatal(err)
	}
	variants, _ := store.Variants(context.Background(), "a1")
	if len(variants) != 2 { // ko + en
		t.Fatalf("variants = %d, want 2", len(variants))
	}
}

type staticSynth struct{}

func (staticSynth) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	return wavutil.NewBuffer([]byte(text)), nil
}

func TestSynthesizeAdapterWritesAudioAndPath(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageTranslated)

	cfg := testsupport.NewConfig(t)
	synthAdapter, err := synthesis.New(staticSynth{}, 4800, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	layout := pipeline.Layout{StagingDir: cfg.Paths.StagingDir}
	adapter := pipeline.NewSynthesizeAdapter(store, synthAdapter, cfg, layout, time.Second, nil)

	// Only the source row has a body so far.
	langs, err := adapter.FanOut(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(langs) != 1 || langs[0] != "ko" {
		t.Fatalf("fan-out = %v", langs)
	}

	if err := adapter.Execute(context.Background(), "a1", "ko"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	variant, _ := store.Get(context.Background(), "a1", "ko")
	if variant.AudioPath == "" {
		t.Fatal("audio path not recorded")
	}
	if _, err := os.Stat(variant.AudioPath); err != nil {
		t.Fatalf("audio file missing: %v", err)
	}
	if done, _ := adapter.Done(context.Background(), "a1", "ko"); !done {
		t.Fatal("Done should report the artifact")
	}

	// Removing the file invalidates Done even though the row points at it.
	if err := os.Remove(variant.AudioPath); err != nil {
		t.Fatal(err)
	}
	if done, _ := adapter.Done(context.Background(), "a1", "ko"); done {
		t.Fatal("Done must check the file, not just the row")
	}
}

func TestSynthesizeAdapterMissingVoice(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageTranslated)

	cfg := testsupport.NewConfig(t)
	cfg.TTS.Voices = nil
	synthAdapter, _ := synthesis.New(staticSynth{}, 4800, 0, nil)
	adapter := pipeline.NewSynthesizeAdapter(store, synthAdapter, cfg, pipeline.Layout{StagingDir: cfg.Paths.StagingDir}, time.Second, nil)

	if err := adapter.Execute(context.Background(), "a1", "ko"); err == nil {
		t.Fatal("expected error for unconfigured voice")
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := pipeline.Layout{StagingDir: "/tmp/staging"}
	if got := layout.AudioPath("a1", "en"); got != filepath.Join("/tmp/staging", "items", "a1", "en", "audio.wav") {
		t.Fatalf("audio path = %s", got)
	}
	if got := layout.RemotePrefix("a1", "en"); got != "items/a1/en" {
		t.Fatalf("remote prefix = %s", got)
	}
}
