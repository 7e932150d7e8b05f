package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/abduss/assethost/internal/asset"
	"github.com/abduss/assethost/internal/upload"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"
)

// DefaultChunkSize stays below the server's default per-call limit.
const DefaultChunkSize = 1 << 20

// ErrUnsupportedClientEncoding is returned by Encode for labels it cannot produce.
var ErrUnsupportedClientEncoding = errors.New("encoding cannot be produced client-side")

// UploadRequest describes a complete upload of one encoding.
type UploadRequest struct {
	FullPath    string
	Collection  string
	Name        string
	Description string
	Token       string
	// Encoding is the variant to produce from Content: identity, gzip or deflate.
	Encoding  string
	Content   []byte
	ChunkSize int
	// Headers are sent on commit. Content-Type is guessed from FullPath when absent.
	Headers [][2]string
}

// UploadResult summarizes a committed upload.
type UploadResult struct {
	BatchID  upload.ID
	ChunkIDs []upload.ID
	Bytes    int
}

// Upload encodes the content, sends it in ordered chunks and commits the batch.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	encodingType, err := asset.ResolveEncoding(req.Encoding)
	if err != nil {
		return UploadResult{}, err
	}
	content, err := Encode(encodingType, req.Content)
	if err != nil {
		return UploadResult{}, err
	}

	name := req.Name
	if name == "" {
		name = path.Base(req.FullPath)
	}
	initReq := InitRequest{
		FullPath:   req.FullPath,
		Collection: req.Collection,
		Token:      req.Token,
		Name:       name,
	}
	if encodingType != asset.EncodingIdentity {
		initReq.EncodingType = encodingType
	}
	if req.Description != "" {
		initReq.Description = &req.Description
	}

	batchID, err := c.InitUpload(ctx, initReq)
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{BatchID: batchID, Bytes: len(content)}
	for i, chunk := range split(content, req.ChunkSize) {
		order := uint64(i)
		chunkID, err := c.UploadChunk(ctx, batchID, chunk, &order)
		if err != nil {
			return UploadResult{}, err
		}
		result.ChunkIDs = append(result.ChunkIDs, chunkID)
	}

	headers := withContentType(req.Headers, req.FullPath)
	if err := c.CommitUpload(ctx, batchID, result.ChunkIDs, headers); err != nil {
		return UploadResult{}, err
	}

	c.log.Info("upload committed",
		zap.String("full_path", req.FullPath),
		zap.String("encoding", encodingType),
		zap.Uint64("batch_id", uint64(batchID)),
		zap.Int("chunks", len(result.ChunkIDs)),
	)
	return result, nil
}

// Encode produces the requested content-encoding of data.
func Encode(encodingType string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch encodingType {
	case asset.EncodingIdentity, "":
		return data, nil
	case asset.EncodingGzip:
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case asset.EncodingDeflate:
		// HTTP deflate is the zlib stream, not raw DEFLATE
		w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedClientEncoding, encodingType)
	}
	return buf.Bytes(), nil
}

// split cuts data into chunks of at most size bytes. Empty data yields one
// empty chunk so the commit still has something to publish.
func split(data []byte, size int) [][]byte {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(data) == 0 {
		return [][]byte{{}}
	}

	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[start:end])
	}
	return chunks
}

func withContentType(headers [][2]string, fullPath string) [][2]string {
	for _, h := range headers {
		if strings.EqualFold(h[0], "Content-Type") {
			return headers
		}
	}
	contentType := mime.TypeByExtension(path.Ext(fullPath))
	if contentType == "" {
		return headers
	}
	return append(append([][2]string(nil), headers...), [2]string{"Content-Type", contentType})
}
