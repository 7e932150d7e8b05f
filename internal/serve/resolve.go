package serve

import (
	"context"

	"github.com/abduss/assethost/internal/asset"
)

// Resolution is the outcome of mapping a request URL onto the asset store.
type Resolution struct {
	// Path is the requested path, not the alias that matched.
	Path  string
	Asset asset.Asset
	Found bool
}

// Resolve maps raw onto a readable asset. Alias candidates are tried before
// the literal path and the first readable match wins. URL errors wrap
// ErrNoURL or ErrMalformedURL; other errors come from the store.
func Resolve(ctx context.Context, store asset.Store, raw string) (Resolution, error) {
	mapped, err := MapURL(raw)
	if err != nil {
		return Resolution{}, err
	}

	candidates := append(AlternativePaths(mapped.Path), mapped.Path)
	for _, candidate := range candidates {
		a, ok, err := asset.GetPublic(ctx, store, candidate, mapped.Token)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Path: mapped.Path, Asset: a, Found: true}, nil
		}
	}
	return Resolution{Path: mapped.Path}, nil
}
