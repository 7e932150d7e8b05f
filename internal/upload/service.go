package upload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abduss/assethost/internal/asset"
	"github.com/abduss/assethost/internal/auth"
	"github.com/abduss/assethost/internal/metrics"
	"go.uber.org/zap"
)

// BatchTTL is how long a batch survives without a chunk upload.
const BatchTTL = 300 * time.Second

// Service runs the batch/chunk upload protocol and commits batches into the
// asset store. Every operation holds one lock for its whole duration, so no
// caller ever observes a half-applied mutation of batches, chunks or assets.
type Service struct {
	mu            sync.Mutex
	state         *state
	assets        asset.Store
	nowFunc       func() time.Time
	maxChunkBytes int64
	reserved      map[string]struct{}
	log           *zap.Logger
}

// NewService constructs an upload service. A non-positive maxChunkBytes disables the size check.
func NewService(assets asset.Store, maxChunkBytes int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		state:         newState(),
		assets:        assets,
		nowFunc:       time.Now,
		maxChunkBytes: maxChunkBytes,
		reserved:      make(map[string]struct{}),
		log:           log,
	}
}

// ReservePaths marks full paths that can never be served as assets because
// the host routes them elsewhere. A trailing slash is ignored.
func (s *Service) ReservePaths(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		s.reserved[strings.TrimSuffix(p, "/")] = struct{}{}
	}
}

// CreateBatch opens a batch owned by caller. Expired batches are swept first.
func (s *Service) CreateBatch(ctx context.Context, caller auth.Principal, in InitInput) (ID, error) {
	encodingType, err := asset.ResolveEncoding(in.EncodingType)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(in.FullPath) == "" || strings.TrimSpace(in.Collection) == "" {
		return 0, ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reserved[strings.TrimSuffix(in.FullPath, "/")]; ok && in.FullPath != "/" {
		return 0, ErrReservedPath
	}

	now := s.nowFunc()
	s.sweepLocked(now)

	id, err := s.state.insertBatch(Batch{
		Key: asset.Key{
			FullPath:    in.FullPath,
			Collection:  in.Collection,
			Owner:       caller,
			Token:       in.Token,
			Name:        in.Name,
			Description: in.Description,
		},
		ExpiresAt:    now.Add(BatchTTL),
		EncodingType: encodingType,
	})
	if err != nil {
		return 0, err
	}

	metrics.BatchCreated()
	s.log.Debug("batch created",
		zap.Uint64("batch_id", uint64(id)),
		zap.String("full_path", in.FullPath),
		zap.String("encoding", encodingType),
		zap.Stringer("owner", caller),
	)
	return id, nil
}

// CreateChunk stores a chunk in the caller's batch and slides the batch expiry forward.
func (s *Service) CreateChunk(ctx context.Context, caller auth.Principal, in ChunkInput) (ID, error) {
	if s.maxChunkBytes > 0 && int64(len(in.Content)) > s.maxChunkBytes {
		return 0, ErrChunkTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.state.batches[in.BatchID]
	if !ok {
		return 0, ErrBatchNotFound
	}
	if batch.Key.Owner != caller {
		return 0, ErrPermissionDenied
	}

	id, err := s.state.insertChunk(in.Content, in.BatchID, in.OrderID)
	if err != nil {
		return 0, err
	}

	batch.ExpiresAt = s.nowFunc().Add(BatchTTL)
	s.state.batches[in.BatchID] = batch

	metrics.ChunkUploaded(len(in.Content))
	return id, nil
}

// CommitBatch assembles the listed chunks into the batch's encoding and
// publishes the asset. Validation failures leave the batch and its chunks
// in place for a retry.
func (s *Service) CommitBatch(ctx context.Context, caller auth.Principal, in CommitInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.commitLocked(ctx, caller, in)
	if err != nil {
		metrics.Commit(KindOf(err).String())
		s.log.Info("commit rejected",
			zap.Uint64("batch_id", uint64(in.BatchID)),
			zap.Stringer("caller", caller),
			zap.Error(err),
		)
		return err
	}
	metrics.Commit("ok")
	return nil
}

func (s *Service) commitLocked(ctx context.Context, caller auth.Principal, in CommitInput) error {
	batch, ok := s.state.batches[in.BatchID]
	if !ok {
		return ErrBatchNotFound
	}
	if batch.Key.Owner != caller {
		return ErrPermissionDenied
	}

	now := s.nowFunc()
	if now.After(batch.ExpiresAt) {
		s.sweepLocked(now)
		return ErrBatchExpired
	}

	existing, exists, err := s.currentAsset(ctx, batch.Key.FullPath)
	if err != nil {
		return err
	}
	if exists && existing.Key.Collection != batch.Key.Collection {
		return ErrCollectionMismatch
	}

	chunks, err := s.resolveChunks(in.BatchID, in.ChunkIDs)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return ErrNoChunks
	}

	contents := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	encoding := asset.NewEncoding(contents, now)

	published := asset.Asset{
		Key:       batch.Key,
		Headers:   append([]asset.HeaderField(nil), in.Headers...),
		Encodings: make(map[string]asset.Encoding, 1),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if exists {
		for label, enc := range existing.Encodings {
			published.Encodings[label] = enc
		}
		published.CreatedAt = existing.CreatedAt
	}
	published.Encodings[batch.EncodingType] = encoding

	if err := s.assets.Put(ctx, published); err != nil {
		return fmt.Errorf("publish asset: %w", err)
	}

	s.state.clearBatch(in.BatchID)

	s.log.Info("batch committed",
		zap.Uint64("batch_id", uint64(in.BatchID)),
		zap.String("full_path", batch.Key.FullPath),
		zap.String("encoding", batch.EncodingType),
		zap.Uint64("total_length", encoding.TotalLength),
		zap.Int("chunks", len(chunks)),
		zap.String("sha256", encoding.Digest()),
	)
	return nil
}

func (s *Service) currentAsset(ctx context.Context, fullPath string) (asset.Asset, bool, error) {
	existing, err := s.assets.Get(ctx, fullPath)
	if err != nil {
		if errors.Is(err, asset.ErrAssetNotFound) {
			return asset.Asset{}, false, nil
		}
		return asset.Asset{}, false, fmt.Errorf("load current asset: %w", err)
	}
	return existing, true, nil
}

// resolveChunks looks up every id and orders the chunks by order id. Chunks
// sharing an order id keep the order in which the commit listed them.
func (s *Service) resolveChunks(batchID ID, chunkIDs []ID) ([]Chunk, error) {
	seen := make(map[ID]struct{}, len(chunkIDs))
	chunks := make([]Chunk, 0, len(chunkIDs))
	for _, chunkID := range chunkIDs {
		if _, dup := seen[chunkID]; dup {
			return nil, ErrDuplicateChunk
		}
		seen[chunkID] = struct{}{}

		chunk, ok := s.state.chunks[chunkID]
		if !ok {
			return nil, ErrChunkNotFound
		}
		if chunk.BatchID != batchID {
			return nil, ErrChunkNotInBatch
		}
		chunks = append(chunks, chunk)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].OrderID < chunks[j].OrderID
	})
	return chunks, nil
}

// ClearExpired removes batches past their expiry along with their chunks.
func (s *Service) ClearExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.nowFunc())
}

func (s *Service) sweepLocked(now time.Time) int {
	removed := s.state.clearExpired(now)
	if removed > 0 {
		metrics.BatchesExpired(removed)
		s.log.Debug("expired batches cleared", zap.Int("count", removed))
	}
	return removed
}

// Pending reports the number of open batches and stored chunks.
func (s *Service) Pending() (batches, chunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.batches), len(s.state.chunks)
}
