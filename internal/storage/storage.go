// Package storage holds uploaded inputs while they are converted and
// optionally publishes finished outputs. It defines the Storage interface and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for temporary upload storage and output
// publication.
type Storage interface {
	// SaveTemp saves data to a uniquely named temporary file and returns its
	// path. The extension of name is preserved so the path still identifies
	// the input format.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Publish uploads data under key and returns its public URL.
	// Returns ErrPublishNotConfigured if no remote store is configured.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
