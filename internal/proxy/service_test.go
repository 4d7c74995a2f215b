package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"procproxy/pkg/types"
)

// fakeUpstream is a scripted remote process API.
type fakeUpstream struct {
	hits        int32
	ownedStatus []int
	ownedBody   string
	lastAuth    atomic.Value
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processes/owned", func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&f.hits, 1)) - 1
		f.lastAuth.Store(r.Header.Get("Authorization"))
		status := http.StatusOK
		if len(f.ownedStatus) > 0 {
			if n >= len(f.ownedStatus) {
				n = len(f.ownedStatus) - 1
			}
			status = f.ownedStatus[n]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(f.ownedBody))
		}
	})
	mux.HandleFunc("GET /processes/{id}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		switch r.PathValue("id") {
		case "p1":
			_, _ = w.Write([]byte(`{"process":{"id":"p1","displayName":"Widget","owner":"u1"}}`))
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /processes/{id}/svg", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		switch r.PathValue("id") {
		case "p1":
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write([]byte(`<svg id="p1"/>`))
		case "wrapped":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"svg":"<svg id=\"wrapped\"/>"}`))
		case "jsonerr":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error":"no preview"}`))
		case "empty":
			w.WriteHeader(http.StatusOK)
		case "flaky":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return mux
}

func newTestService(t *testing.T, f *fakeUpstream) *Service {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", BackoffUnit: time.Millisecond})
}

func TestFetchOwned_ProcessesShape(t *testing.T) {
	f := &fakeUpstream{ownedBody: `{"processes":[{"id":"p1","displayName":"Widget"}]}`}
	svc := newTestService(t, f)
	items, err := svc.FetchOwned(context.Background(), `{"access_token":"abc123"}`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := types.ProcessSummary{ID: "p1", DisplayName: "Widget"}
	if len(items) != 1 || items[0] != want {
		t.Fatalf("items=%+v", items)
	}
	if got := f.lastAuth.Load(); got != "Bearer abc123" {
		t.Fatalf("auth=%v", got)
	}
}

func TestFetchOwned_EmptyIsNotAnError(t *testing.T) {
	for _, body := range []string{`[]`, `{"unexpected":1}`, `garbage`} {
		f := &fakeUpstream{ownedBody: body}
		items, err := newTestService(t, f).FetchOwned(context.Background(), "tok")
		if err != nil {
			t.Fatalf("%s: err=%v", body, err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("%s: items=%v", body, items)
		}
	}
}

func TestFetchOwned_NoCredentialMakesNoCall(t *testing.T) {
	f := &fakeUpstream{ownedBody: `[]`}
	svc := newTestService(t, f)
	for _, raw := range []string{"", "   ", `{"access_token":""}`, `{"access_token":"  "}`} {
		_, err := svc.FetchOwned(context.Background(), raw)
		if !IsNoCredential(err) {
			t.Fatalf("raw=%q err=%v", raw, err)
		}
	}
	if n := atomic.LoadInt32(&f.hits); n != 0 {
		t.Fatalf("upstream hit %d times", n)
	}
}

func TestFetchOwned_AuthExpired(t *testing.T) {
	f := &fakeUpstream{ownedStatus: []int{http.StatusUnauthorized}}
	_, err := newTestService(t, f).FetchOwned(context.Background(), "tok")
	if !IsAuthExpired(err) {
		t.Fatalf("err=%v", err)
	}
	if atomic.LoadInt32(&f.hits) != 1 {
		t.Fatalf("hits=%d", atomic.LoadInt32(&f.hits))
	}
}

func TestFetchOwned_UpstreamAfterRetries(t *testing.T) {
	f := &fakeUpstream{ownedStatus: []int{http.StatusServiceUnavailable}}
	_, err := newTestService(t, f).FetchOwned(context.Background(), "tok")
	if !IsUpstream(err) {
		t.Fatalf("err=%v", err)
	}
	if atomic.LoadInt32(&f.hits) != 3 {
		t.Fatalf("hits=%d", atomic.LoadInt32(&f.hits))
	}
	fe := err.(*FetchError)
	if fe.Detail == "" {
		t.Fatalf("expected detail")
	}
}

func TestFetchOwned_RecoversAfterTransientFailures(t *testing.T) {
	f := &fakeUpstream{ownedStatus: []int{500, 500, 200}, ownedBody: `{"data":[{"id":"a"}]}`}
	items, err := newTestService(t, f).FetchOwned(context.Background(), "tok")
	if err != nil || len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("items=%v err=%v", items, err)
	}
}

func TestFetchOwned_UnexpectedStatusIsUpstream(t *testing.T) {
	f := &fakeUpstream{ownedStatus: []int{http.StatusTeapot}}
	_, err := newTestService(t, f).FetchOwned(context.Background(), "tok")
	if !IsUpstream(err) || atomic.LoadInt32(&f.hits) != 1 {
		t.Fatalf("err=%v hits=%d", err, atomic.LoadInt32(&f.hits))
	}
}

func TestFetchPreview(t *testing.T) {
	f := &fakeUpstream{}
	svc := newTestService(t, f)
	img, err := svc.FetchPreview(context.Background(), "tok", "p1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if img.ID != "p1" || string(img.Data) != `<svg id="p1"/>` || img.ContentType != "image/svg+xml" {
		t.Fatalf("img=%+v", img)
	}
	img, err = svc.FetchPreview(context.Background(), "tok", "wrapped")
	if err != nil || string(img.Data) != `<svg id="wrapped"/>` {
		t.Fatalf("wrapped img=%+v err=%v", img, err)
	}
}

func TestFetchPreview_FailuresDegradeToNotFound(t *testing.T) {
	f := &fakeUpstream{}
	svc := newTestService(t, f)
	for _, id := range []string{"missing", "jsonerr", "empty", "flaky", ""} {
		_, err := svc.FetchPreview(context.Background(), "tok", id)
		if !IsNotFound(err) {
			t.Fatalf("id=%q err=%v", id, err)
		}
	}
}

func TestFetchPreview_SingleAttempt(t *testing.T) {
	f := &fakeUpstream{}
	svc := newTestService(t, f)
	_, _ = svc.FetchPreview(context.Background(), "tok", "flaky")
	if atomic.LoadInt32(&f.hits) != 1 {
		t.Fatalf("preview retried: hits=%d", atomic.LoadInt32(&f.hits))
	}
}

func TestFetchPreview_Anonymous(t *testing.T) {
	f := &fakeUpstream{}
	svc := newTestService(t, f)
	if _, err := svc.FetchPreview(context.Background(), "", "p1"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := f.lastAuth.Load(); got != "" {
		t.Fatalf("expected anonymous request, auth=%v", got)
	}
}

func TestFetchDetail(t *testing.T) {
	f := &fakeUpstream{}
	svc := newTestService(t, f)
	d, err := svc.FetchDetail(context.Background(), "tok", "p1")
	if err != nil || d.ID != "p1" || d.DisplayName != "Widget" || d.Attributes["owner"] != "u1" {
		t.Fatalf("detail=%+v err=%v", d, err)
	}
	if _, err := svc.FetchDetail(context.Background(), "tok", "nope"); !IsNotFound(err) {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.FetchDetail(context.Background(), "tok", "boom"); !IsUpstream(err) {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.FetchDetail(context.Background(), "", "p1"); !IsNoCredential(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestIndependentServices(t *testing.T) {
	a := New(Config{BaseURL: "http://a.example"})
	b := New(Config{BaseURL: "http://b.example/"})
	if a.BaseURL() != "http://a.example" || b.BaseURL() != "http://b.example" {
		t.Fatalf("a=%s b=%s", a.BaseURL(), b.BaseURL())
	}
}

func TestErrorKinds(t *testing.T) {
	err := newError(KindUpstream, "status 502 after 3 attempt(s)")
	if err.Error() != "upstream: status 502 after 3 attempt(s)" {
		t.Fatalf("msg=%q", err.Error())
	}
	if KindOf(nil) != KindUnknown || KindOf(context.Canceled) != KindUnknown {
		t.Fatalf("unexpected kind for foreign errors")
	}
	if newError(KindNoCredential, "").Error() != "no_credential" {
		t.Fatalf("msg=%q", newError(KindNoCredential, "").Error())
	}
}

func TestFetchError_StatusCode(t *testing.T) {
	cases := map[ErrorKind]int{
		KindNoCredential: http.StatusUnauthorized,
		KindAuthExpired:  http.StatusUnauthorized,
		KindNotFound:     http.StatusNotFound,
		KindUpstream:     http.StatusBadGateway,
		KindUnknown:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := (&FetchError{Kind: kind}).StatusCode(); got != want {
			t.Fatalf("%s: status=%d want %d", kind, got, want)
		}
	}
}
