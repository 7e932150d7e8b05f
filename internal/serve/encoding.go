package serve

import (
	"net/http"
	"strings"

	"github.com/abduss/assethost/internal/asset"
)

// BuildEncodings returns the caller's encoding preferences in header order,
// always ending with identity.
func BuildEncodings(headers http.Header) []string {
	var encodings []string
	for _, value := range headers.Values("Accept-Encoding") {
		for _, part := range strings.Split(value, ",") {
			label := strings.TrimSpace(part)
			if i := strings.IndexByte(label, ';'); i >= 0 {
				label = strings.TrimSpace(label[:i])
			}
			if label == "" {
				continue
			}
			encodings = append(encodings, label)
		}
	}
	return append(encodings, asset.EncodingIdentity)
}

// selectEncoding picks the first preferred label the asset carries.
func selectEncoding(a asset.Asset, preferences []string) (string, asset.Encoding, bool) {
	for _, label := range preferences {
		if enc, ok := a.Encodings[label]; ok {
			return label, enc, true
		}
	}
	return "", asset.Encoding{}, false
}
