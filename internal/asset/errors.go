package asset

import "errors"

var (
	// ErrAssetNotFound signals that no asset exists at the requested path.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrChunkNotFound signals a chunk index outside an encoding or a missing chunk object.
	ErrChunkNotFound = errors.New("asset chunk not found")
	// ErrUnsupportedEncoding is returned for encoding labels outside the supported set.
	ErrUnsupportedEncoding = errors.New("asset encoding not supported")
)
