// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "context"

// FileStore defines the interface for storing uploaded document files.
type FileStore interface {
	// Save persists content under the given key and returns the storage path
	// documents are later loaded from.
	Save(ctx context.Context, key string, content []byte, contentType string) (string, error)

	// Load reads back a previously stored file.
	Load(ctx context.Context, path string) ([]byte, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
}
