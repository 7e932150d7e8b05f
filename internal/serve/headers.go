package serve

import (
	"fmt"

	"github.com/abduss/assethost/internal/asset"
	"golang.org/x/net/http/httpguts"
)

// BuildHeaders returns the response headers for one encoding of an asset:
// the stored headers in order, an ETag derived from the encoding digest and,
// for compressed variants, Content-Encoding.
func BuildHeaders(a asset.Asset, enc asset.Encoding, encodingType string) ([]asset.HeaderField, error) {
	headers := make([]asset.HeaderField, 0, len(a.Headers)+2)
	for _, h := range a.Headers {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return nil, fmt.Errorf("%w: name %q", ErrInvalidHeader, h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, fmt.Errorf("%w: value of %s", ErrInvalidHeader, h.Name)
		}
		headers = append(headers, h)
	}

	headers = append(headers, asset.HeaderField{Name: "ETag", Value: `"` + enc.Digest() + `"`})
	if encodingType != asset.EncodingIdentity {
		headers = append(headers, asset.HeaderField{Name: "Content-Encoding", Value: encodingType})
	}
	return headers, nil
}
