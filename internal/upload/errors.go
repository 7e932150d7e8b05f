package upload

import (
	"errors"

	"github.com/abduss/assethost/internal/asset"
)

var (
	// ErrBatchNotFound indicates the batch does not exist or was already purged.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrChunkNotFound indicates a commit referenced an unknown chunk.
	ErrChunkNotFound = errors.New("chunk does not exist")
	// ErrChunkNotInBatch indicates a commit referenced a chunk from another batch.
	ErrChunkNotInBatch = errors.New("chunk not included in the provided batch")
	// ErrDuplicateChunk indicates a commit listed the same chunk twice.
	ErrDuplicateChunk = errors.New("chunk listed more than once")
	// ErrPermissionDenied indicates the caller does not own the batch.
	ErrPermissionDenied = errors.New("batch initializer does not match caller")
	// ErrCollectionMismatch indicates the target path already belongs to another collection.
	ErrCollectionMismatch = errors.New("provided collection does not match existing collection")
	// ErrBatchExpired indicates the batch outlived its TTL before commit.
	ErrBatchExpired = errors.New("batch did not complete in time")
	// ErrNoChunks indicates a commit with an empty chunk list.
	ErrNoChunks = errors.New("no chunk to commit")
	// ErrChunkTooLarge indicates a chunk beyond the per-call size limit.
	ErrChunkTooLarge = errors.New("chunk too large")
	// ErrInvalidKey indicates a batch request without a usable path or collection.
	ErrInvalidKey = errors.New("full path and collection are required")
	// ErrReservedPath indicates a full path that the host answers itself.
	ErrReservedPath = errors.New("full path is reserved by the host")
	// ErrIDOverflow indicates the id space is exhausted.
	ErrIDOverflow = errors.New("id counter overflow")
	// ErrUnsupportedEncoding is returned for encoding labels outside the supported set.
	ErrUnsupportedEncoding = asset.ErrUnsupportedEncoding
)

// Kind classifies upload errors for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindExpired
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindOverflow:
		return "overflow"
	default:
		return "internal"
	}
}

// KindOf returns the class of err.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUnsupportedEncoding),
		errors.Is(err, ErrChunkTooLarge),
		errors.Is(err, ErrNoChunks),
		errors.Is(err, ErrDuplicateChunk),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrReservedPath):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrCollectionMismatch),
		errors.Is(err, ErrChunkNotInBatch):
		return KindPermission
	case errors.Is(err, ErrBatchNotFound),
		errors.Is(err, ErrChunkNotFound):
		return KindNotFound
	case errors.Is(err, ErrBatchExpired):
		return KindExpired
	case errors.Is(err, ErrIDOverflow):
		return KindOverflow
	default:
		return KindInternal
	}
}
