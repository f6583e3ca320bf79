// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileStore persists uploaded documents on the local filesystem under a
// single root directory. Suitable for single-instance deployments and tests;
// multi-instance deployments use the S3 store.
type LocalFileStore struct {
	root string
}

// NewLocalFileStore creates a file store rooted at dir, creating the
// directory when missing.
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStore{root: dir}, nil
}

// resolve maps a storage key onto the root directory. Keys come back from the
// database on Load and Delete, so escaping the root is always refused.
func (s *LocalFileStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Save writes content under key and returns the key as the storage path.
func (s *LocalFileStore) Save(_ context.Context, key string, content []byte, _ string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document file: %w", err)
	}
	return key, nil
}

// Load reads a previously stored file back.
func (s *LocalFileStore) Load(_ context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	return content, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalFileStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document file: %w", err)
	}
	return nil
}
