package clientid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestGetOrCreatePersists(t *testing.T) {
	dir := t.TempDir()

	first := GetOrCreate(dir)
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("not a uuid: %q", first)
	}

	second := GetOrCreate(dir)
	if first != second {
		t.Fatalf("id not stable: %q vs %q", first, second)
	}
}

func TestGetOrCreateReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "client_id"), []byte("not-a-uuid"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	id := GetOrCreate(dir)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected fresh uuid, got %q", id)
	}
}
