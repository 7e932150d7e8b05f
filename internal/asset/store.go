package asset

import "context"

// Store is the durable path-to-asset map. Get returns ErrAssetNotFound for
// unknown paths; Put replaces any asset at the same full path.
//
// Get may return encodings without their bytes. Chunk reads one chunk of an
// encoding returned by Get and fails with ErrChunkNotFound when it is gone.
type Store interface {
	Get(ctx context.Context, fullPath string) (Asset, error)
	Put(ctx context.Context, a Asset) error
	Chunk(ctx context.Context, enc Encoding, index int) ([]byte, error)
}
