package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_GetSetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "appraiser.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing key to report ok=false")
	}

	if err := s.Set("daily_appraisal_count", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok := s.Get("daily_appraisal_count")
	if !ok || v != "2" {
		t.Errorf("expected 2, got %q ok=%v", v, ok)
	}

	// A second store over the same file sees the persisted value.
	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	v, ok = reloaded.Get("daily_appraisal_count")
	if !ok || v != "2" {
		t.Errorf("expected persisted 2 after reload, got %q ok=%v", v, ok)
	}
}

func TestFileStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("expected key gone after delete")
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected corrupt file to be tolerated, got %v", err)
	}
	if _, ok := s.Get("anything"); ok {
		t.Error("expected empty store from corrupt file")
	}
}
