package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/services/tts"
	"briefcast/internal/textchunk"
	"briefcast/internal/wavutil"
)

// Adapter synthesizes full article bodies. It is all-or-nothing per call:
// if any chunk fails, no audio file is written.
type Adapter struct {
	synth         tts.Synthesizer
	maxChunkBytes int
	pause         time.Duration
	logger        *slog.Logger
}

// New creates a synthesis adapter. maxChunkBytes must stay under the
// provider's per-request limit; pause is inserted between chunk requests
// to keep the provider rate limiter happy.
func New(synth tts.Synthesizer, maxChunkBytes int, pause time.Duration, logger *slog.Logger) (*Adapter, error) {
	if synth == nil {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "new", "synthesizer required", nil)
	}
	if maxChunkBytes <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "new", "chunk ceiling must be positive", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Adapter{
		synth:         synth,
		maxChunkBytes: maxChunkBytes,
		pause:         pause,
		logger:        logger.With(logging.String(logging.FieldComponent, "synthesis")),
	}, nil
}

// Synthesize renders text to a single WAV file at outputPath. Chunks are
// synthesized sequentially in text order so the merged audio reads
// front to back.
func (a *Adapter) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile, outputPath string) error {
	chunks, err := textchunk.Split(text, a.maxChunkBytes)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, "synthesis", "split", "article body is empty", nil)
	}

	a.logger.Info("synthesizing article audio",
		logging.String("voice", voice.VoiceName),
		logging.Int("chunks", len(chunks)))

	buffers := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
				return services.Wrap(services.ErrTimeout, "synthesis", "pause", "synthesis cancelled", ctx.Err())
			case <-time.After(a.pause):
			}
		}
		audio, err := a.synth.Synthesize(ctx, chunk, voice)
		if err != nil {
			return fmt.Errorf("synthesize chunk %d of %d: %w", i+1, len(chunks), err)
		}
		buffers = append(buffers, audio)
	}

	combined, err := wavutil.Combine(buffers)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "synthesis", "combine", "merging audio buffers failed", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "synthesis", "write", "creating audio directory failed", err)
	}
	if err := os.WriteFile(outputPath, combined, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "synthesis", "write", "writing audio file failed", err)
	}

	a.logger.Info("article audio written",
		logging.String("path", outputPath),
		logging.Int("bytes", len(combined)))
	return nil
}
