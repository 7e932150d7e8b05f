package serve

import (
	"errors"
	"testing"
	"time"

	"github.com/abduss/assethost/internal/asset"
)

func TestTokenEncodingIsDeterministic(t *testing.T) {
	token := StreamingToken{
		FullPath:     "/video.mp4",
		Token:        "secret",
		Headers:      []asset.HeaderField{{Name: "Content-Type", Value: "video/mp4"}},
		Index:        3,
		EncodingType: asset.EncodingGzip,
	}
	token.SHA256[0] = 0xab

	first, err := EncodeToken(token)
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}
	second, _ := EncodeToken(token)
	if first != second {
		t.Fatalf("expected identical encodings")
	}

	decoded, err := DecodeToken(first)
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if decoded.FullPath != token.FullPath || decoded.Index != 3 || decoded.Token != "secret" || decoded.SHA256 != token.SHA256 {
		t.Fatalf("unexpected decoded token %+v", decoded)
	}
	if len(decoded.Headers) != 1 || decoded.Headers[0].Value != "video/mp4" {
		t.Fatalf("headers lost: %+v", decoded.Headers)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{"", "!!!", "AAAA"} {
		if _, err := DecodeToken(cursor); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("cursor %q: expected ErrInvalidCursor, got %v", cursor, err)
		}
	}
}

func TestNextTokenStopsAtLastChunk(t *testing.T) {
	enc := asset.NewEncoding([][]byte{[]byte("a"), []byte("b")}, time.Now())
	key := asset.Key{FullPath: "/x.bin"}

	next := nextToken(key, enc, asset.EncodingIdentity, nil, 0)
	if next == nil || next.Index != 1 || next.SHA256 != enc.SHA256 {
		t.Fatalf("unexpected token %+v", next)
	}
	if nextToken(key, enc, asset.EncodingIdentity, nil, 1) != nil {
		t.Fatalf("expected no token after the last chunk")
	}
}
