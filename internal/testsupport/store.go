package testsupport

import (
	"path/filepath"
	"testing"

	"briefcast/internal/content"
)

// MustOpenStore opens a throwaway content store in a per-test directory
// and closes it on cleanup.
func MustOpenStore(t testing.TB) *content.Store {
	t.Helper()

	store, err := content.OpenPath(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
