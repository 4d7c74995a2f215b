package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"procproxy/internal/proxy"
)

func newRemoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/processes/owned", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Write([]byte(`[{"id":"p1","displayName":"Widget"}]`))
		case "Bearer empty":
			w.Write([]byte(`null`))
		case "Bearer stale":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"upstream rejected credential","code":401,"kind":"auth_expired"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`bad gateway`))
		}
	})
	mux.HandleFunc("GET /api/processes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "p1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found","code":404,"kind":"not_found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"p1","displayName":"Widget","attributes":{"owner":"u"}}`))
	})
	mux.HandleFunc("GET /api/processes/{id}/svg", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "p1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte("<svg/>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteFetcher_Owned(t *testing.T) {
	srv := newRemoteServer(t)
	f := NewRemoteFetcher(srv.URL+"/", time.Second, zerolog.Nop())
	ctx := context.Background()

	items, err := f.FetchOwned(ctx, `{"access_token":"good"}`)
	if err != nil || len(items) != 1 || items[0].DisplayName != "Widget" {
		t.Fatalf("items=%+v err=%v", items, err)
	}

	items, err = f.FetchOwned(ctx, "empty")
	if err != nil || items == nil || len(items) != 0 {
		t.Fatalf("empty list: items=%#v err=%v", items, err)
	}

	if _, err := f.FetchOwned(ctx, "stale"); !proxy.IsAuthExpired(err) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	if _, err := f.FetchOwned(ctx, "other"); !proxy.IsUpstream(err) {
		t.Fatalf("expected upstream, got %v", err)
	}
	if _, err := f.FetchOwned(ctx, "  "); !proxy.IsNoCredential(err) {
		t.Fatalf("expected no credential, got %v", err)
	}
}

func TestRemoteFetcher_DetailAndPreview(t *testing.T) {
	srv := newRemoteServer(t)
	f := NewRemoteFetcher(srv.URL, time.Second, zerolog.Nop())
	ctx := context.Background()

	d, err := f.FetchDetail(ctx, "good", "p1")
	if err != nil || d.ID != "p1" || d.Attributes["owner"] != "u" {
		t.Fatalf("detail=%+v err=%v", d, err)
	}
	if _, err := f.FetchDetail(ctx, "good", "nope"); !proxy.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	img, err := f.FetchPreview(ctx, "", "p1")
	if err != nil || string(img.Data) != "<svg/>" || img.ContentType != "image/svg+xml" {
		t.Fatalf("preview=%+v err=%v", img, err)
	}
	if _, err := f.FetchPreview(ctx, "good", "nope"); !proxy.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
