package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tagrel/internal/model"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustTag(t *testing.T, s *Store, name string) model.TagRef {
	t.Helper()
	tag, err := s.EnsureTag(context.Background(), name)
	if err != nil {
		t.Fatalf("EnsureTag(%q) failed: %v", name, err)
	}
	return tag
}

func countGroups(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM synonym_groups").Scan(&n); err != nil {
		t.Fatalf("count groups: %v", err)
	}
	return n
}
