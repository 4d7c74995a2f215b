package e2e

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"procproxy/internal/client"
	"procproxy/internal/httpapi"
	"procproxy/internal/proxy"
)

// upstreamAPI is a scripted remote process API.
type upstreamAPI struct {
	hits      int32
	failFirst int32 // number of initial owned-list calls answered with 500
	owned     string
	svg       map[string]string
	token     string
}

func (u *upstreamAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processes/owned", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&u.hits, 1)
		if r.Header.Get("Authorization") != "Bearer "+u.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if n <= atomic.LoadInt32(&u.failFirst) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(u.owned))
	})
	mux.HandleFunc("GET /processes/{id}/svg", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.hits, 1)
		svg, ok := u.svg[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(svg))
	})
	return mux
}

func (u *upstreamAPI) Hits() int32 { return atomic.LoadInt32(&u.hits) }

// stack is an upstream plus the proxy service and HTTP server in front of it.
type stack struct {
	upstream *upstreamAPI
	svc      *proxy.Service
	proxy    *httptest.Server
}

func newStack(t *testing.T, u *upstreamAPI) *stack {
	t.Helper()
	up := httptest.NewServer(u.handler())
	t.Cleanup(up.Close)
	svc := proxy.New(proxy.Config{
		BaseURL:     up.URL,
		ReadTimeout: 2 * time.Second,
		BackoffUnit: 5 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return &stack{upstream: u, svc: svc, proxy: srv}
}

func (s *stack) remote() client.Fetcher {
	return client.NewRemoteFetcher(s.proxy.URL, 2*time.Second, zerolog.Nop())
}

// drive runs cmd and every command that follows from it, the way a
// tea.Program would, but synchronously.
func drive(c *client.Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			drive(c, sub)
		}
		return
	}
	_, next := c.Update(msg)
	drive(c, next)
}
