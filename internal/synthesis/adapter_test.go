package synthesis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"briefcast/internal/services"
	"briefcast/internal/services/tts"
	"briefcast/internal/synthesis"
	"briefcast/internal/wavutil"
)

type fakeSynth struct {
	chunks   []string
	failOn   int
	payload  func(text string) []byte
	calls    int
	lastLang string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	f.calls++
	f.chunks = append(f.chunks, text)
	f.lastLang = voice.LanguageCode
	if f.failOn > 0 && f.calls == f.failOn {
		return nil, services.Wrap(services.ErrExternalService, "synthesis", "call", "boom", nil)
	}
	if f.payload != nil {
		return f.payload(text), nil
	}
	return wavutil.NewBuffer([]byte(text)), nil
}

func TestSynthesizeWritesMergedAudio(t *testing.T) {
	fake := &fakeSynth{}
	adapter, err := synthesis.New(fake, 100, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := filepath.Join(t.TempDir(), "audio", "item.wav")
	body := strings.Repeat("Markets moved today. ", 20)
	voice := tts.VoiceProfile{LanguageCode: "en", VoiceName: "en-US-Neural2-J"}
	if err := adapter.Synthesize(context.Background(), body, voice, out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if fake.calls < 2 {
		t.Fatalf("expected multiple chunk calls, got %d", fake.calls)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	header, err := wavutil.ParseHeader(data)
	if err != nil {
		t.Fatalf("output is not a valid WAV: %v", err)
	}
	if int(header.RIFFSize) != len(data)-8 {
		t.Fatalf("RIFF size = %d, want %d", header.RIFFSize, len(data)-8)
	}

	// Chunks must have been synthesized in text order.
	joined := strings.Join(fake.chunks, " ")
	if !strings.HasPrefix(joined, "Markets moved today.") {
		t.Fatalf("first chunk out of order: %q", fake.chunks[0])
	}
}

func TestSynthesizeChunkFailureWritesNothing(t *testing.T) {
	fake := &fakeSynth{failOn: 2}
	adapter, _ := synthesis.New(fake, 100, 0, nil)

	out := filepath.Join(t.TempDir(), "item.wav")
	body := strings.Repeat("Markets moved today. ", 20)
	err := adapter.Synthesize(context.Background(), body, tts.VoiceProfile{}, out)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("output file must not exist after a chunk failure")
	}
}

func TestSynthesizeEmptyBody(t *testing.T) {
	adapter, _ := synthesis.New(&fakeSynth{}, 100, 0, nil)
	err := adapter.Synthesize(context.Background(), "   \n\t ", tts.VoiceProfile{}, filepath.Join(t.TempDir(), "x.wav"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSynthesizeOversizedBody(t *testing.T) {
	// A 20,000-byte body under a 4,800-byte ceiling splits into at least
	// five chunks; the merged file drops one header per extra chunk.
	var rawTotal int
	fake := &fakeSynth{payload: func(text string) []byte {
		buf := wavutil.NewBuffer([]byte(text))
		rawTotal += len(buf)
		return buf
	}}
	adapter, _ := synthesis.New(fake, 4800, 0, nil)

	body := strings.Repeat("Bitcoin extended its rally on heavy spot volume. ", 409)
	if len(body) < 20000 {
		t.Fatalf("test body too short: %d bytes", len(body))
	}

	out := filepath.Join(t.TempDir(), "item.wav")
	err := adapter.Synthesize(context.Background(), body, tts.VoiceProfile{}, out)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if fake.calls < 5 {
		t.Fatalf("chunk calls = %d, want >= 5", fake.calls)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	wantLen := rawTotal - (fake.calls-1)*wavutil.HeaderSize
	if len(data) != wantLen {
		t.Fatalf("combined length = %d, want %d", len(data), wantLen)
	}
	header, err := wavutil.ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if int(header.DataSize) != len(data)-wavutil.HeaderSize {
		t.Fatalf("data size = %d, want %d", header.DataSize, len(data)-wavutil.HeaderSize)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := synthesis.New(nil, 100, 0, nil); err == nil {
		t.Fatal("expected error for nil synthesizer")
	}
	if _, err := synthesis.New(&fakeSynth{}, 0, 0, nil); err == nil {
		t.Fatal("expected error for non-positive chunk ceiling")
	}
}
