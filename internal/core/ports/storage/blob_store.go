package storage

import (
	"context"
	"io"
)

// BlobStore keeps receipt files addressed by slash-separated object paths.
type BlobStore interface {
	// Upload writes the content to path, replacing any existing object.
	Upload(ctx context.Context, path string, content io.Reader, contentType string) error

	// Delete removes every listed object. Missing objects are not an error.
	Delete(ctx context.Context, paths []string) error

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// PublicURL resolves the URL a browser can fetch the object from.
	PublicURL(path string) string
}
