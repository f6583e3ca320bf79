// Package adapters provides implementations for external service integrations.
package adapters

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := "0d6f2f5e-0000-4000-8000-000000000000/invoice.pdf"
	content := []byte("%PDF-1.4 fake document")

	t.Run("Save returns the key as storage path", func(t *testing.T) {
		path, err := store.Save(ctx, key, content, "application/pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != key {
			t.Errorf("expected storage path %q, got %q", key, path)
		}
	})

	t.Run("Load reads the stored content back", func(t *testing.T) {
		loaded, err := store.Load(ctx, key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(loaded, content) {
			t.Errorf("loaded content does not match saved content")
		}
	})

	t.Run("Load fails for a missing file", func(t *testing.T) {
		if _, err := store.Load(ctx, "missing/file.pdf"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Delete removes the file", func(t *testing.T) {
		if err := store.Delete(ctx, key); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.Load(ctx, key); err == nil {
			t.Error("expected error after delete")
		}
	})

	t.Run("Delete on a missing file does not fail", func(t *testing.T) {
		if err := store.Delete(ctx, "missing/file.pdf"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestLocalFileStore_RefusesPathTraversal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalFileStore(filepath.Join(root, "storage"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outside := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"", "../secret.txt", "a/../../secret.txt"} {
		if _, err := store.Save(ctx, key, []byte("x"), "text/plain"); err == nil {
			t.Errorf("expected Save to refuse key %q", key)
		}
		if _, err := store.Load(ctx, key); err == nil {
			t.Errorf("expected Load to refuse key %q", key)
		}
		if err := store.Delete(ctx, key); err == nil {
			t.Errorf("expected Delete to refuse key %q", key)
		}
	}
}

func TestNewLocalFileStore_CreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	if _, err := NewLocalFileStore(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected storage root to be a directory")
	}
}
