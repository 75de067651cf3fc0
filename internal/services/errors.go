package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input to a pure component (empty buffer
	// list, non-positive byte ceiling). These indicate a caller bug and are
	// never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalService marks a failed call to a translation, synthesis,
	// packaging, or upload collaborator. Recorded per language and retried
	// on the next scheduling pass.
	ErrExternalService = errors.New("external service error")
	// ErrTimeout marks an external call that exceeded its deadline. Treated
	// like ErrExternalService for retry purposes.
	ErrTimeout = errors.New("timeout")
	// ErrInconsistentState marks a store/artifact disagreement: a language
	// recorded as succeeded whose artifact is missing.
	ErrInconsistentState = errors.New("inconsistent state")
	// ErrNotFound marks a missing content record.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error that carries stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error should be retried on a later scheduling
// pass. Validation and configuration failures signal caller bugs and are
// excluded.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

// Kind returns the taxonomy label for an error, used in structured logs and
// the per-language attempt records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInconsistentState):
		return "inconsistent_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
