package hls

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"briefcast/internal/services"
)

// Result lists the files one packaging run produced.
type Result struct {
	PlaylistPath string
	SegmentPaths []string
}

// Executor abstracts command execution for the packager.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Packager converts WAV audio into an HLS rendition via ffmpeg.
type Packager struct {
	binary         string
	segmentSeconds int
	exec           Executor
}

// NewPackager constructs a Packager for the provided ffmpeg binary.
func NewPackager(binary string, segmentSeconds int) *Packager {
	return newPackager(strings.TrimSpace(binary), segmentSeconds, commandExecutor{})
}

// NewPackagerWithExecutor allows injecting a custom executor for testing.
func NewPackagerWithExecutor(binary string, segmentSeconds int, exec Executor) *Packager {
	if exec == nil {
		exec = commandExecutor{}
	}
	return newPackager(strings.TrimSpace(binary), segmentSeconds, exec)
}

func newPackager(binary string, segmentSeconds int, exec Executor) *Packager {
	if binary == "" {
		binary = "ffmpeg"
	}
	if segmentSeconds <= 0 {
		segmentSeconds = 10
	}
	return &Packager{binary: binary, segmentSeconds: segmentSeconds, exec: exec}
}

// Package converts audioPath into an HLS rendition under outputDir. The
// playlist is named index.m3u8 and segments segment_NNN.ts. outputDir is
// created if missing; stale files from a prior run are removed first so a
// retry never mixes old and new segments.
func (p *Packager) Package(ctx context.Context, audioPath, outputDir string) (*Result, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "packaging", "package", "audio path required", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, services.Wrap(services.ErrValidation, "packaging", "package", "audio file not readable", err)
	}
	if err := p.resetOutputDir(outputDir); err != nil {
		return nil, err
	}

	playlist := filepath.Join(outputDir, "index.m3u8")
	segmentPattern := filepath.Join(outputDir, "segment_%03d.ts")
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", audioPath,
		"-vn",
		"-c:a", "aac",
		"-b:a", "128k",
		"-f", "hls",
		"-hls_time", strconv.Itoa(p.segmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", segmentPattern,
		playlist,
	}

	output, err := p.exec.Run(ctx, p.binary, args)
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "packaging", "ffmpeg",
			fmt.Sprintf("ffmpeg failed: %s", excerpt(output)), err)
	}

	return p.collect(outputDir, playlist)
}

func (p *Packager) resetOutputDir(outputDir string) error {
	if strings.TrimSpace(outputDir) == "" {
		return services.Wrap(services.ErrValidation, "packaging", "package", "output directory required", nil)
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "packaging", "package", "clearing output directory failed", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "packaging", "package", "creating output directory failed", err)
	}
	return nil
}

func (p *Packager) collect(outputDir, playlist string) (*Result, error) {
	if _, err := os.Stat(playlist); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "packaging", "collect", "ffmpeg produced no playlist", err)
	}
	segments, err := filepath.Glob(filepath.Join(outputDir, "segment_*.ts"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "packaging", "collect", "listing segments failed", err)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "packaging", "collect", "ffmpeg produced no segments", nil)
	}
	sort.Strings(segments)
	return &Result{PlaylistPath: playlist, SegmentPaths: segments}, nil
}

func excerpt(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 512 {
		text = text[len(text)-512:]
	}
	return text
}
