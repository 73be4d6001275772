package store

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeDecodeStorePath(t *testing.T) {
	tests := []struct {
		id      string
		encoded string
	}{
		{"default", "default"},
		{"club/rapid", "club__rapid"},
		{"org/club/rapid", "org__club__rapid"},
	}

	for _, tt := range tests {
		if got := EncodeStorePath(tt.id); got != tt.encoded {
			t.Errorf("EncodeStorePath(%q) = %q, want %q", tt.id, got, tt.encoded)
		}
		if got := DecodeStorePath(tt.encoded); got != tt.id {
			t.Errorf("DecodeStorePath(%q) = %q, want %q", tt.encoded, got, tt.id)
		}
	}
}

func TestDBPath(t *testing.T) {
	path := DBPath("club/rapid")
	if filepath.Base(path) != "habits.db" {
		t.Errorf("expected habits.db file, got %q", path)
	}
	if !strings.Contains(path, "club__rapid") {
		t.Errorf("expected encoded store dir in %q", path)
	}
	if strings.Contains(filepath.Dir(path), "club/rapid") {
		t.Errorf("store id not encoded in %q", path)
	}
}

func TestDefaultStoreRoot(t *testing.T) {
	root := DefaultStoreRoot()
	if root == "" {
		t.Fatal("empty store root")
	}
	if filepath.Base(root) != "stores" {
		t.Errorf("expected .../stores, got %q", root)
	}
}
