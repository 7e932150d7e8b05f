package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abduss/assethost/internal/asset"
	"github.com/abduss/assethost/internal/metrics"
	"go.uber.org/zap"
)

// Request is an incoming read request.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
}

// Response is a complete answer to a Request. Body always holds the first
// chunk of the selected encoding; StreamingToken is set when more follow.
type Response struct {
	StatusCode     int
	Body           []byte
	Headers        []asset.HeaderField
	StreamingToken *StreamingToken
}

// StreamingResponse carries one continuation chunk and the token for the
// next one, if any.
type StreamingResponse struct {
	Body  []byte
	Token *StreamingToken
}

// Responder answers read requests from an asset store.
type Responder struct {
	store asset.Store
	log   *zap.Logger
}

// NewResponder constructs a Responder.
func NewResponder(store asset.Store, log *zap.Logger) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{store: store, log: log}
}

// HTTPRequest resolves the request URL, negotiates an encoding and serves its
// first chunk. Client-facing failures are reported as responses; the returned
// error is reserved for store failures.
func (r *Responder) HTTPRequest(ctx context.Context, req Request) (Response, error) {
	if req.Method != http.MethodGet {
		return errorResponse(http.StatusMethodNotAllowed, "Method Not Allowed."), nil
	}

	resolved, err := Resolve(ctx, r.store, req.URL)
	if err != nil {
		if errors.Is(err, ErrNoURL) || errors.Is(err, ErrMalformedURL) {
			return errorResponse(http.StatusMethodNotAllowed, "Permission denied. Cannot perform this operation. "+err.Error()), nil
		}
		return Response{}, fmt.Errorf("resolve %s: %w", req.URL, err)
	}
	if !resolved.Found {
		return errorResponse(http.StatusNotFound, "No asset found."), nil
	}

	encodingType, enc, ok := selectEncoding(resolved.Asset, BuildEncodings(req.Headers))
	if !ok || enc.ChunkCount() == 0 {
		return errorResponse(http.StatusInternalServerError, "No asset encoding found."), nil
	}

	headers, err := BuildHeaders(resolved.Asset, enc, encodingType)
	if err != nil {
		return errorResponse(http.StatusMethodNotAllowed, "Permission denied. Invalid headers. "+err.Error()), nil
	}

	body, err := r.store.Chunk(ctx, enc, 0)
	if err != nil {
		return Response{}, fmt.Errorf("load first chunk of %s: %w", resolved.Path, err)
	}

	metrics.ChunkServed("initial")
	return Response{
		StatusCode:     http.StatusOK,
		Body:           body,
		Headers:        headers,
		StreamingToken: nextToken(resolved.Asset.Key, enc, encodingType, headers, 0),
	}, nil
}

// StreamingCallback serves the chunk a token points at. Access control is
// applied again with the token's embedded access token. ErrStreamGone is
// returned when the asset, encoding or chunk no longer exists.
func (r *Responder) StreamingCallback(ctx context.Context, token StreamingToken) (StreamingResponse, error) {
	a, ok, err := asset.GetPublic(ctx, r.store, token.FullPath, token.Token)
	if err != nil {
		return StreamingResponse{}, fmt.Errorf("load streamed asset: %w", err)
	}
	if !ok {
		r.log.Warn("streamed asset gone", zap.String("full_path", token.FullPath))
		return StreamingResponse{}, ErrStreamGone
	}

	enc, ok := a.Encodings[token.EncodingType]
	if !ok || token.Index >= uint64(enc.ChunkCount()) {
		r.log.Warn("streamed encoding gone",
			zap.String("full_path", token.FullPath),
			zap.String("encoding", token.EncodingType),
			zap.Uint64("index", token.Index),
		)
		return StreamingResponse{}, ErrStreamGone
	}

	body, err := r.store.Chunk(ctx, enc, int(token.Index))
	if err != nil {
		if errors.Is(err, asset.ErrChunkNotFound) {
			r.log.Warn("streamed chunk gone",
				zap.String("full_path", token.FullPath),
				zap.Uint64("index", token.Index),
				zap.Error(err),
			)
			return StreamingResponse{}, ErrStreamGone
		}
		return StreamingResponse{}, fmt.Errorf("load streamed chunk: %w", err)
	}

	metrics.ChunkServed("stream")
	return StreamingResponse{
		Body:  body,
		Token: nextToken(a.Key, enc, token.EncodingType, token.Headers, token.Index),
	}, nil
}

func errorResponse(status int, message string) Response {
	return Response{StatusCode: status, Body: []byte(message)}
}
