package asset

import (
	"context"
	"errors"
)

// GetPublic returns the asset at fullPath when the caller may read it.
// Unprotected assets are always readable; protected ones only when token
// equals the stored token exactly. ok is false when the asset is missing or
// the token does not match.
func GetPublic(ctx context.Context, store Store, fullPath, token string) (Asset, bool, error) {
	a, err := store.Get(ctx, fullPath)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return Asset{}, false, nil
		}
		return Asset{}, false, err
	}

	if !a.Key.Protected() {
		return a, true, nil
	}
	if token == "" || token != a.Key.Token {
		return Asset{}, false, nil
	}
	return a, true, nil
}
