package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"briefcast/internal/services"
)

// VoiceProfile identifies the synthesis voice for one language.
type VoiceProfile struct {
	LanguageCode string `json:"language_code"`
	VoiceName    string `json:"voice_name"`
}

// Synthesizer defines the single-request synthesis operation. Text passed
// in must already be under the provider's per-request byte limit; chunking
// is the caller's responsibility.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}

// Client calls the synthesis HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Synthesizer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a synthesis client.
func New(apiKey, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tts api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tts base url required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type synthesizeRequest struct {
	Text  string       `json:"text"`
	Voice VoiceProfile `json:"voice"`
}

// Synthesize converts one chunk of text into a WAV buffer.
func (c *Client) Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("encode synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "synthesis", "call", "TTS request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(
			services.ErrExternalService, "synthesis", "call",
			fmt.Sprintf("TTS API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "synthesis", "read", "truncated TTS response", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "synthesis", "read", "TTS response empty", nil)
	}
	return audio, nil
}
