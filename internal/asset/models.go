package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/abduss/assethost/internal/auth"
)

// Encoding labels accepted for uploads. The order is the order in which the
// server is willing to certify variants of the same asset.
const (
	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
	EncodingCompress = "compress"
	EncodingDeflate  = "deflate"
	EncodingBrotli   = "br"
)

var supportedEncodings = []string{
	EncodingIdentity,
	EncodingGzip,
	EncodingCompress,
	EncodingDeflate,
	EncodingBrotli,
}

// HeaderField is one HTTP response header stored with an asset.
type HeaderField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Key identifies an asset and carries its ownership and access metadata.
type Key struct {
	FullPath    string         `json:"full_path"`
	Collection  string         `json:"collection"`
	Owner       auth.Principal `json:"owner"`
	Token       string         `json:"token,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
}

// Protected reports whether reads must present the key's token.
func (k Key) Protected() bool {
	return k.Token != ""
}

// Encoding is one content-encoding variant of an asset. An encoding read
// back from a durable store may carry chunk references instead of
// ContentChunks; use Store.Chunk to read its bytes.
type Encoding struct {
	ContentChunks [][]byte          `json:"-"`
	TotalLength   uint64            `json:"total_length"`
	SHA256        [sha256.Size]byte `json:"-"`
	Modified      time.Time         `json:"modified"`

	chunkRefs []string
}

// Digest returns the hex form of the encoding's SHA-256.
func (e Encoding) Digest() string {
	return hex.EncodeToString(e.SHA256[:])
}

// ChunkCount returns the number of content chunks.
func (e Encoding) ChunkCount() int {
	if e.ContentChunks == nil {
		return len(e.chunkRefs)
	}
	return len(e.ContentChunks)
}

// loadedChunk returns chunk index when the encoding holds its bytes.
func (e Encoding) loadedChunk(index int) ([]byte, bool) {
	if index < 0 || index >= len(e.ContentChunks) {
		return nil, false
	}
	return e.ContentChunks[index], true
}

// Asset is a named resource at a unique path with one or more encodings.
type Asset struct {
	Key       Key                 `json:"key"`
	Headers   []HeaderField       `json:"headers"`
	Encodings map[string]Encoding `json:"encodings"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewEncoding hashes the chunks in order and records their total length.
// The chunks are referenced, not copied.
func NewEncoding(chunks [][]byte, modified time.Time) Encoding {
	hasher := sha256.New()
	var total uint64
	for _, chunk := range chunks {
		total += uint64(len(chunk))
		hasher.Write(chunk)
	}

	enc := Encoding{
		ContentChunks: chunks,
		TotalLength:   total,
		Modified:      modified,
	}
	copy(enc.SHA256[:], hasher.Sum(nil))
	return enc
}

// ResolveEncoding returns the label to use for an optional upload encoding,
// defaulting to identity.
func ResolveEncoding(encodingType string) (string, error) {
	if encodingType == "" {
		return EncodingIdentity, nil
	}
	for _, supported := range supportedEncodings {
		if supported == encodingType {
			return encodingType, nil
		}
	}
	return "", ErrUnsupportedEncoding
}

// SupportedEncodings lists the accepted encoding labels in certification order.
func SupportedEncodings() []string {
	out := make([]string, len(supportedEncodings))
	copy(out, supportedEncodings)
	return out
}

// clone returns a copy whose maps and slices are not shared with a.
// Chunk bytes are immutable once committed and stay shared.
func (a Asset) clone() Asset {
	out := a
	out.Headers = append([]HeaderField(nil), a.Headers...)
	out.Encodings = make(map[string]Encoding, len(a.Encodings))
	for label, enc := range a.Encodings {
		enc.ContentChunks = append([][]byte(nil), enc.ContentChunks...)
		enc.chunkRefs = append([]string(nil), enc.chunkRefs...)
		out.Encodings[label] = enc
	}
	return out
}
