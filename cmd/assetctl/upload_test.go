package main

import (
	"reflect"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"Cache-Control: max-age=60", "X-Empty:"})
	if err != nil {
		t.Fatalf("parseHeaders returned error: %v", err)
	}
	want := [][2]string{{"Cache-Control", "max-age=60"}, {"X-Empty", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	for _, bad := range []string{"no-colon", ": value"} {
		if _, err := parseHeaders([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"token", "upload", "get", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %q not registered", name)
		}
	}
}
