package auth

import (
	"strings"
	"time"
)

// Principal is the opaque identity of a caller. Two callers are the same
// principal exactly when their values compare equal.
type Principal string

// Anonymous is the principal of an unauthenticated caller.
const Anonymous Principal = ""

// IsAnonymous reports whether p carries no identity.
func (p Principal) IsAnonymous() bool {
	return strings.TrimSpace(string(p)) == ""
}

// String implements fmt.Stringer.
func (p Principal) String() string {
	if p.IsAnonymous() {
		return "anonymous"
	}
	return string(p)
}

// Claims describes the validated identity extracted from a bearer token.
type Claims struct {
	Principal Principal
	ExpiresAt time.Time
	IssuedAt  time.Time
}
