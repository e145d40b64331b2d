// Package store defines the storage collaborator contract used by the
// tabula orchestrator to fetch and persist raw dataset text, together with
// a local filesystem implementation and a NATS ObjectStore implementation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by LoadText when the path has no stored text.
var ErrNotFound = errors.New("store: not found")

// Storage moves raw dataset text in and out of a backing medium. The core
// performs no path normalization beyond format inference; paths are opaque
// keys to everything except the codec layer.
type Storage interface {
	// LoadText fetches the full text stored at path. A missing path is
	// reported as ErrNotFound.
	LoadText(ctx context.Context, path string) ([]byte, error)
	// SaveText persists the full text at path, replacing any previous
	// content.
	SaveText(ctx context.Context, path string, data []byte) error
	// Exists reports whether path currently has stored text.
	Exists(ctx context.Context, path string) (bool, error)
}
