package serve

import (
	"encoding/base64"
	"fmt"

	"github.com/abduss/assethost/internal/asset"
	"github.com/fxamacker/cbor/v2"
)

// StreamingToken carries everything needed to serve the next chunk of an
// encoding without resolving the request URL again.
type StreamingToken struct {
	FullPath     string              `cbor:"1,keyasint"`
	Token        string              `cbor:"2,keyasint,omitempty"`
	Headers      []asset.HeaderField `cbor:"3,keyasint"`
	Index        uint64              `cbor:"4,keyasint"`
	SHA256       [32]byte            `cbor:"5,keyasint"`
	EncodingType string              `cbor:"6,keyasint"`
}

var (
	tokenEncMode cbor.EncMode
	tokenDecMode cbor.DecMode
)

func init() {
	var err error
	tokenEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("serve: CBOR encoder initialization failed: " + err.Error())
	}
	tokenDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("serve: CBOR decoder initialization failed: " + err.Error())
	}
}

// nextToken returns the token for the chunk after index, or nil when index
// is the last chunk.
func nextToken(key asset.Key, enc asset.Encoding, encodingType string, headers []asset.HeaderField, index uint64) *StreamingToken {
	next := index + 1
	if next >= uint64(enc.ChunkCount()) {
		return nil
	}
	return &StreamingToken{
		FullPath:     key.FullPath,
		Token:        key.Token,
		Headers:      headers,
		Index:        next,
		SHA256:       enc.SHA256,
		EncodingType: encodingType,
	}
}

// EncodeToken serializes a token to deterministic CBOR wrapped in unpadded
// base64url, suitable for a header or query parameter.
func EncodeToken(token StreamingToken) (string, error) {
	data, err := tokenEncMode.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("encode streaming token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken reverses EncodeToken.
func DecodeToken(cursor string) (StreamingToken, error) {
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return StreamingToken{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var token StreamingToken
	if err := tokenDecMode.Unmarshal(data, &token); err != nil {
		return StreamingToken{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if token.FullPath == "" || token.EncodingType == "" {
		return StreamingToken{}, ErrInvalidCursor
	}
	return token, nil
}
