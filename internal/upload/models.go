package upload

import (
	"time"

	"github.com/abduss/assethost/internal/asset"
)

// ID identifies a batch or a chunk. Ids start at 1 and are never reused.
type ID uint64

// Batch is an in-progress upload for one encoding of one asset.
type Batch struct {
	Key          asset.Key
	ExpiresAt    time.Time
	EncodingType string
}

// Chunk is one uploaded fragment of a batch.
type Chunk struct {
	BatchID ID
	Content []byte
	OrderID uint64
}

// InitInput describes the asset a new batch will publish.
type InitInput struct {
	FullPath     string
	Collection   string
	EncodingType string
	Token        string
	Name         string
	Description  string
}

// ChunkInput carries one chunk upload. A nil OrderID defaults to the chunk's own id.
type ChunkInput struct {
	BatchID ID
	Content []byte
	OrderID *uint64
}

// CommitInput names the chunks to assemble and the headers to publish.
type CommitInput struct {
	BatchID  ID
	ChunkIDs []ID
	Headers  []asset.HeaderField
}
