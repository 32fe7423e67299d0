// Package archive provides cold storage for backtest artifacts: run
// results, equity curves and report snapshots, keyed by slash-separated
// paths.
package archive

import "context"

// Storage is a flat blob store. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Write stores data at path, replacing any existing blob.
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the blob at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns the paths of all blobs under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the blob at path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether a blob is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}
