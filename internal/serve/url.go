package serve

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// requests are resolved against a fixed origin; only the path and the
	// query take part in asset lookup
	baseURL    = "http://localhost"
	tokenParam = "token"
)

// MappedURL is the asset lookup key extracted from a request URL.
type MappedURL struct {
	Path  string
	Token string
}

// MapURL parses raw against the fixed base and extracts the clean path and
// the first value of the reserved token query parameter.
func MapURL(raw string) (MappedURL, error) {
	if raw == "" {
		return MappedURL{}, ErrNoURL
	}

	separator := ""
	if !strings.HasPrefix(raw, "/") {
		separator = "/"
	}

	parsed, err := url.Parse(baseURL + separator + raw)
	if err != nil {
		return MappedURL{}, fmt.Errorf("url %s: %w", raw, ErrMalformedURL)
	}
	// resolving an absolute reference removes "." and ".." segments
	parsed = parsed.ResolveReference(parsed)

	mapped := MappedURL{Path: parsed.Path}
	if mapped.Path == "" {
		mapped.Path = "/"
	}
	if values := parsed.Query()[tokenParam]; len(values) > 0 {
		mapped.Token = values[0]
	}
	return mapped, nil
}

// AlternativePaths returns the alias candidates tried before the literal
// path. Paths with a file extension have none; "/dir/" maps to
// "/dir/index.html"; "/page" maps to "/page.html" then "/page/index.html".
//
// An extensionless asset uploaded next to a same-named .html file or
// folder index is shadowed by the alias.
func AlternativePaths(p string) []string {
	if hasExtension(p) {
		return nil
	}
	if strings.HasSuffix(p, "/") {
		return []string{p + "index.html"}
	}
	return []string{p + ".html", p + "/index.html"}
}

// hasExtension reports whether the last path segment carries a dot that is
// not its leading character. Dot files such as "/.well-known" have none.
func hasExtension(p string) bool {
	name := strings.TrimRight(p, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return false
	}
	return strings.LastIndex(name, ".") > 0
}
