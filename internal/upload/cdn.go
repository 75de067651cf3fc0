package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"briefcast/internal/services"
)

// Executor abstracts command execution for the CDN uploader.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// CDNUploader copies local files to the CDN origin with rclone and maps
// them to public URLs.
type CDNUploader struct {
	binary        string
	remote        string
	publicBaseURL string
	exec          Executor
}

// NewCDNUploader constructs an uploader for the given rclone remote
// (e.g. "cdn:briefcast-audio") and the public base URL the remote is
// served under.
func NewCDNUploader(binary, remote, publicBaseURL string) (*CDNUploader, error) {
	return newCDNUploader(binary, remote, publicBaseURL, commandExecutor{})
}

// NewCDNUploaderWithExecutor allows injecting a custom executor for testing.
func NewCDNUploaderWithExecutor(binary, remote, publicBaseURL string, exec Executor) (*CDNUploader, error) {
	if exec == nil {
		exec = commandExecutor{}
	}
	return newCDNUploader(binary, remote, publicBaseURL, exec)
}

func newCDNUploader(binary, remote, publicBaseURL string, exec Executor) (*CDNUploader, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "new", "rclone remote required", nil)
	}
	publicBaseURL = strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if publicBaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "new", "public base url required", nil)
	}
	if _, err := url.Parse(publicBaseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "new", "public base url invalid", err)
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "rclone"
	}
	return &CDNUploader{binary: binary, remote: remote, publicBaseURL: publicBaseURL, exec: exec}, nil
}

// UploadFile copies one local file to remoteKey and returns its public URL.
func (u *CDNUploader) UploadFile(ctx context.Context, localPath, remoteKey string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", services.Wrap(services.ErrValidation, "upload", "copy", "local file not readable", err)
	}
	remoteKey = strings.Trim(remoteKey, "/")
	if remoteKey == "" {
		return "", services.Wrap(services.ErrValidation, "upload", "copy", "remote key required", nil)
	}

	dest := u.remote + "/" + remoteKey
	output, err := u.exec.Run(ctx, u.binary, []string{"copyto", "--no-traverse", localPath, dest})
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, "upload", "copy",
			fmt.Sprintf("rclone copyto failed: %s", excerpt(output)), err)
	}
	return u.PublicURL(remoteKey), nil
}

// UploadDirectory copies every file in localDir to remotePrefix and
// returns the public URLs keyed by base filename.
func (u *CDNUploader) UploadDirectory(ctx context.Context, localDir, remotePrefix string) (map[string]string, error) {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "upload", "copy", "local directory not readable", err)
	}
	remotePrefix = strings.Trim(remotePrefix, "/")
	if remotePrefix == "" {
		return nil, services.Wrap(services.ErrValidation, "upload", "copy", "remote prefix required", nil)
	}

	dest := u.remote + "/" + remotePrefix
	output, err := u.exec.Run(ctx, u.binary, []string{"copy", localDir, dest})
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "upload", "copy",
			fmt.Sprintf("rclone copy failed: %s", excerpt(output)), err)
	}

	urls := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Base(entry.Name())
		urls[name] = u.PublicURL(path.Join(remotePrefix, name))
	}
	if len(urls) == 0 {
		return nil, services.Wrap(services.ErrValidation, "upload", "copy", "local directory is empty", nil)
	}
	return urls, nil
}

// PublicURL maps a remote key to the URL it is served under.
func (u *CDNUploader) PublicURL(remoteKey string) string {
	return u.publicBaseURL + "/" + strings.Trim(remoteKey, "/")
}

func excerpt(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 512 {
		text = text[len(text)-512:]
	}
	return text
}
