package pipeline

import (
	"context"
	"time"
)

// Adapter produces one stage's artifact for one language. Implementations
// must be idempotent per language: re-running a language that already has
// the artifact either skips or safely overwrites, never duplicates.
type Adapter interface {
	Kind() Kind

	// Timeout bounds a single Execute call. Zero means no deadline beyond
	// the caller's context.
	Timeout() time.Duration

	// FanOut returns the languages this stage must process for the
	// article, derived from the artifacts upstream stages left behind.
	FanOut(ctx context.Context, articleID string) ([]string, error)

	// Done reports whether the language already carries this stage's
	// artifact.
	Done(ctx context.Context, articleID, language string) (bool, error)

	// Execute produces the artifact for one language.
	Execute(ctx context.Context, articleID, language string) error
}
