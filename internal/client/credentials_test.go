package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCredentialSources(t *testing.T) {
	ctx := context.Background()

	if v, err := StaticCredentials("s").Token(ctx); err != nil || v != "s" {
		t.Fatalf("static: %q %v", v, err)
	}

	t.Setenv("PROCPROXY_TEST_TOKEN", `{"access_token":"e"}`)
	if v, err := (EnvCredentials{Var: "PROCPROXY_TEST_TOKEN"}).Token(ctx); err != nil || v != `{"access_token":"e"}` {
		t.Fatalf("env: %q %v", v, err)
	}
	if _, err := (EnvCredentials{Var: "PROCPROXY_TEST_TOKEN_MISSING"}).Token(ctx); err == nil {
		t.Fatalf("expected error for unset variable")
	}

	p := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(p, []byte("  f1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fc := FileCredentials{Path: p}
	if v, err := fc.Token(ctx); err != nil || v != "f1" {
		t.Fatalf("file: %q %v", v, err)
	}
	// Rotated in place: the next read sees the new token.
	if err := os.WriteFile(p, []byte("f2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if v, _ := fc.Token(ctx); v != "f2" {
		t.Fatalf("file after rotation: %q", v)
	}
	if _, err := (FileCredentials{Path: p + ".missing"}).Token(ctx); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSelectionSinks(t *testing.T) {
	var got []string
	var s SelectionSink = SelectionFunc(func(id string) { got = append(got, id) })
	s.SelectionChanged("a")
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("func sink: %v", got)
	}

	m := NewMemorySink()
	if m.Last() != "" {
		t.Fatalf("empty sink should have no last selection")
	}
	m.SelectionChanged("x")
	m.SelectionChanged("y")
	sel := m.Selections()
	if m.Last() != "y" || len(sel) != 2 || sel[0] != "x" {
		t.Fatalf("memory sink: %v", sel)
	}
	sel[0] = "mutated"
	if m.Selections()[0] != "x" {
		t.Fatalf("Selections must return a copy")
	}

	c := New(Options{Fetcher: &fakeFetcher{}, Credentials: CredentialFunc(func(context.Context) (string, error) { return "tok", nil })})
	if got := c.credential(context.Background()); got != "tok" {
		t.Fatalf("credential func: %q", got)
	}
}
