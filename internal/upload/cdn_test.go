package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"briefcast/internal/services"
	"briefcast/internal/upload"
)

type fakeExecutor struct {
	fail    bool
	calls   [][]string
	lastBin string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.lastBin = binary
	f.calls = append(f.calls, args)
	if f.fail {
		return []byte("Failed to copy: connection refused"), errors.New("exit status 1")
	}
	return nil, nil
}

func TestUploadFileReturnsPublicURL(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "index.m3u8")
	if err := os.WriteFile(local, []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeExecutor{}
	uploader, err := upload.NewCDNUploaderWithExecutor("rclone", "cdn:briefcast", "https://audio.example.com/", fake)
	if err != nil {
		t.Fatalf("NewCDNUploader: %v", err)
	}

	url, err := uploader.UploadFile(context.Background(), local, "items/abc/en/index.m3u8")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if url != "https://audio.example.com/items/abc/en/index.m3u8" {
		t.Fatalf("url = %s", url)
	}
	if len(fake.calls) != 1 || fake.calls[0][0] != "copyto" {
		t.Fatalf("rclone args = %v", fake.calls)
	}
}

func TestUploadDirectoryMapsAllFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.m3u8", "segment_000.ts", "segment_001.ts"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	uploader, _ := upload.NewCDNUploaderWithExecutor("rclone", "cdn:briefcast", "https://audio.example.com", &fakeExecutor{})
	urls, err := uploader.UploadDirectory(context.Background(), dir, "items/abc/en")
	if err != nil {
		t.Fatalf("UploadDirectory: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("urls = %v", urls)
	}
	if urls["segment_001.ts"] != "https://audio.example.com/items/abc/en/segment_001.ts" {
		t.Fatalf("segment url = %s", urls["segment_001.ts"])
	}
}

func TestUploadTransportFailure(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "index.m3u8")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	uploader, _ := upload.NewCDNUploaderWithExecutor("rclone", "cdn:briefcast", "https://audio.example.com", &fakeExecutor{fail: true})
	_, err := uploader.UploadFile(context.Background(), local, "items/abc/index.m3u8")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	uploader, _ := upload.NewCDNUploaderWithExecutor("rclone", "cdn:briefcast", "https://audio.example.com", &fakeExecutor{})
	_, err := uploader.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), "k")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewCDNUploaderValidation(t *testing.T) {
	if _, err := upload.NewCDNUploaderWithExecutor("rclone", "", "https://x", &fakeExecutor{}); err == nil {
		t.Fatal("expected error for missing remote")
	}
	if _, err := upload.NewCDNUploaderWithExecutor("rclone", "cdn:x", "", &fakeExecutor{}); err == nil {
		t.Fatal("expected error for missing public base url")
	}
}
