package hls_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"briefcast/internal/hls"
	"briefcast/internal/services"
)

// fakeExecutor mimics ffmpeg by writing the playlist and segments the
// real binary would produce.
type fakeExecutor struct {
	segments int
	fail     bool
	gotArgs  []string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.gotArgs = args
	if f.fail {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}
	playlist := args[len(args)-1]
	dir := filepath.Dir(playlist)
	for i := 0; i < f.segments; i++ {
		name := filepath.Join(dir, "segment_"+pad(i)+".ts")
		if err := os.WriteFile(name, []byte{0x47}, 0o644); err != nil {
			return nil, err
		}
	}
	return nil, os.WriteFile(playlist, []byte("#EXTM3U\n"), 0o644)
}

func pad(i int) string {
	s := strconv.Itoa(i)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func TestPackageProducesOrderedSegments(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "item.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeExecutor{segments: 3}
	packager := hls.NewPackagerWithExecutor("ffmpeg", 6, fake)
	result, err := packager.Package(context.Background(), audio, filepath.Join(dir, "hls"))
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	if filepath.Base(result.PlaylistPath) != "index.m3u8" {
		t.Fatalf("playlist = %s", result.PlaylistPath)
	}
	if len(result.SegmentPaths) != 3 {
		t.Fatalf("segments = %d, want 3", len(result.SegmentPaths))
	}
	for i, seg := range result.SegmentPaths {
		want := "segment_" + pad(i) + ".ts"
		if filepath.Base(seg) != want {
			t.Fatalf("segment %d = %s, want %s", i, filepath.Base(seg), want)
		}
	}

	// Segment duration flag must carry through.
	found := false
	for i, arg := range fake.gotArgs {
		if arg == "-hls_time" && i+1 < len(fake.gotArgs) && fake.gotArgs[i+1] == "6" {
			found = true
		}
	}
	if !found {
		t.Fatalf("hls_time flag missing from args: %v", fake.gotArgs)
	}
}

func TestPackageFfmpegFailure(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "item.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	packager := hls.NewPackagerWithExecutor("ffmpeg", 10, &fakeExecutor{fail: true})
	_, err := packager.Package(context.Background(), audio, filepath.Join(dir, "hls"))
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestPackageMissingAudio(t *testing.T) {
	packager := hls.NewPackagerWithExecutor("ffmpeg", 10, &fakeExecutor{})
	_, err := packager.Package(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), t.TempDir())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPackageClearsStaleSegments(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "item.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "hls")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(out, "segment_099.ts")
	if err := os.WriteFile(stale, []byte{0x47}, 0o644); err != nil {
		t.Fatal(err)
	}

	packager := hls.NewPackagerWithExecutor("ffmpeg", 10, &fakeExecutor{segments: 2})
	result, err := packager.Package(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if len(result.SegmentPaths) != 2 {
		t.Fatalf("stale segment leaked into result: %v", result.SegmentPaths)
	}
}
