package pipeline

import (
	"path"
	"path/filepath"
)

// Layout maps article/language pairs to staging paths and remote keys.
// Paths are deterministic so a retry finds the artifacts of earlier runs.
type Layout struct {
	StagingDir string
}

// AudioPath is where synthesis writes the merged WAV for one variant.
func (l Layout) AudioPath(articleID, language string) string {
	return filepath.Join(l.StagingDir, "items", articleID, language, "audio.wav")
}

// HLSDir is where packaging writes the playlist and segments.
func (l Layout) HLSDir(articleID, language string) string {
	return filepath.Join(l.StagingDir, "items", articleID, language, "hls")
}

// PlaylistPath is the packaged playlist location inside HLSDir.
func (l Layout) PlaylistPath(articleID, language string) string {
	return filepath.Join(l.HLSDir(articleID, language), "index.m3u8")
}

// RemotePrefix is the CDN key prefix for one variant's rendition.
func (l Layout) RemotePrefix(articleID, language string) string {
	return path.Join("items", articleID, language)
}
