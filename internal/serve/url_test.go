package serve

import (
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func TestMapURL(t *testing.T) {
	tests := []struct {
		raw       string
		wantPath  string
		wantToken string
	}{
		{raw: "/a.txt", wantPath: "/a.txt"},
		{raw: "a.txt", wantPath: "/a.txt"},
		{raw: "/docs/guide?lang=en", wantPath: "/docs/guide"},
		{raw: "/secret.pdf?token=abc&token=def", wantPath: "/secret.pdf", wantToken: "abc"},
		{raw: "/secret.pdf?x=1&token=t%20s", wantPath: "/secret.pdf", wantToken: "t s"},
		{raw: "/", wantPath: "/"},
		{raw: "?token=x", wantPath: "/", wantToken: "x"},
		{raw: "/docs/../a.txt", wantPath: "/a.txt"},
		{raw: "/a/./b/", wantPath: "/a/b/"},
		{raw: "/../../etc?token=t", wantPath: "/etc", wantToken: "t"},
		{raw: "/a/b/..", wantPath: "/a/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			mapped, err := MapURL(tt.raw)
			if err != nil {
				t.Fatalf("MapURL returned error: %v", err)
			}
			if mapped.Path != tt.wantPath {
				t.Fatalf("expected path %q, got %q", tt.wantPath, mapped.Path)
			}
			if mapped.Token != tt.wantToken {
				t.Fatalf("expected token %q, got %q", tt.wantToken, mapped.Token)
			}
		})
	}
}

func TestMapURLErrors(t *testing.T) {
	if _, err := MapURL(""); !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}
	if _, err := MapURL("/bad%zzescape"); !errors.Is(err, ErrMalformedURL) {
		t.Fatalf("expected ErrMalformedURL, got %v", err)
	}
}

func TestAlternativePaths(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "/style.css", want: nil},
		{path: "/about.html", want: nil},
		{path: "/archive.tar.gz", want: nil},
		{path: "/about/", want: []string{"/about/index.html"}},
		{path: "/", want: []string{"/index.html"}},
		{path: "/about", want: []string{"/about.html", "/about/index.html"}},
		{path: "/.well-known/hello", want: []string{"/.well-known/hello.html", "/.well-known/hello/index.html"}},
		{path: "/.well-known", want: []string{"/.well-known.html", "/.well-known/index.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AlternativePaths(tt.path); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBuildEncodings(t *testing.T) {
	headers := http.Header{}
	headers.Add("Accept-Encoding", "gzip;q=1.0, deflate ,, br;q=0.5")

	got := BuildEncodings(headers)
	want := []string{"gzip", "deflate", "br", "identity"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := BuildEncodings(http.Header{}); !reflect.DeepEqual(got, []string{"identity"}) {
		t.Fatalf("expected identity fallback, got %v", got)
	}
}
