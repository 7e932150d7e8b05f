package upload

import (
	"math"
	"time"
)

// state holds every in-flight batch and chunk. It is not safe for concurrent
// use; Service serializes access.
type state struct {
	lastBatchID   ID
	lastChunkID   ID
	batches       map[ID]Batch
	chunks        map[ID]Chunk
	chunksByBatch map[ID][]ID
}

func newState() *state {
	return &state{
		batches:       make(map[ID]Batch),
		chunks:        make(map[ID]Chunk),
		chunksByBatch: make(map[ID][]ID),
	}
}

func nextID(last ID) (ID, error) {
	if last == math.MaxUint64 {
		return 0, ErrIDOverflow
	}
	return last + 1, nil
}

func (s *state) insertBatch(batch Batch) (ID, error) {
	id, err := nextID(s.lastBatchID)
	if err != nil {
		return 0, err
	}
	s.lastBatchID = id
	s.batches[id] = batch
	return id, nil
}

func (s *state) insertChunk(content []byte, batchID ID, orderID *uint64) (ID, error) {
	id, err := nextID(s.lastChunkID)
	if err != nil {
		return 0, err
	}
	s.lastChunkID = id

	order := uint64(id)
	if orderID != nil {
		order = *orderID
	}
	s.chunks[id] = Chunk{BatchID: batchID, Content: content, OrderID: order}
	s.chunksByBatch[batchID] = append(s.chunksByBatch[batchID], id)
	return id, nil
}

// clearExpired drops batches whose expiry is strictly before now, together
// with their chunks, and returns how many batches were removed.
func (s *state) clearExpired(now time.Time) int {
	removed := 0
	for id, batch := range s.batches {
		if now.After(batch.ExpiresAt) {
			s.clearBatch(id)
			removed++
		}
	}
	s.clearOrphans()
	return removed
}

// clearBatch removes the batch and every chunk uploaded into it.
func (s *state) clearBatch(batchID ID) {
	for _, chunkID := range s.chunksByBatch[batchID] {
		delete(s.chunks, chunkID)
	}
	delete(s.chunksByBatch, batchID)
	delete(s.batches, batchID)
}

// clearOrphans removes index entries for batches that no longer exist.
func (s *state) clearOrphans() {
	for batchID, chunkIDs := range s.chunksByBatch {
		if _, ok := s.batches[batchID]; ok {
			continue
		}
		for _, chunkID := range chunkIDs {
			delete(s.chunks, chunkID)
		}
		delete(s.chunksByBatch, batchID)
	}
}
