package auth

import "errors"

var (
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmptyPrincipal is returned when asked to issue a token for nobody.
	ErrEmptyPrincipal = errors.New("principal must not be empty")
)
