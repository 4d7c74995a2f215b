package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"procproxy/internal/proxy"
	"procproxy/internal/token"
	"procproxy/internal/upstream"
	"procproxy/pkg/types"
)

// RemoteFetcher implements Fetcher against a running procproxy server. The
// server does its own retrying, so each call here is a single attempt.
type RemoteFetcher struct {
	baseURL string
	client  *upstream.Client
}

// NewRemoteFetcher targets the procproxy server at baseURL.
func NewRemoteFetcher(baseURL string, timeout time.Duration, log zerolog.Logger) *RemoteFetcher {
	return &RemoteFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: upstream.New(upstream.Options{
			ReadTimeout: timeout,
			MaxRetries:  -1,
			Logger:      log,
		}),
	}
}

func (r *RemoteFetcher) FetchOwned(ctx context.Context, rawCredential string) ([]types.ProcessSummary, error) {
	tok := token.Normalize(rawCredential)
	if !token.Present(tok) {
		return nil, &proxy.FetchError{Kind: proxy.KindNoCredential}
	}
	out := r.get(ctx, "/api/processes/owned", tok, "remote_owned")
	if !out.OK() {
		return nil, remoteError(out)
	}
	items := []types.ProcessSummary{}
	if err := json.Unmarshal(out.Body, &items); err != nil {
		return nil, &proxy.FetchError{Kind: proxy.KindUpstream, Detail: "decode owned list: " + err.Error()}
	}
	if items == nil {
		items = []types.ProcessSummary{}
	}
	return items, nil
}

func (r *RemoteFetcher) FetchDetail(ctx context.Context, rawCredential, id string) (types.ProcessDetail, error) {
	tok := token.Normalize(rawCredential)
	if !token.Present(tok) {
		return types.ProcessDetail{}, &proxy.FetchError{Kind: proxy.KindNoCredential}
	}
	out := r.get(ctx, "/api/processes/"+url.PathEscape(id), tok, "remote_detail")
	if !out.OK() {
		return types.ProcessDetail{}, remoteError(out)
	}
	var d types.ProcessDetail
	if err := json.Unmarshal(out.Body, &d); err != nil || d.ID == "" {
		return types.ProcessDetail{}, &proxy.FetchError{Kind: proxy.KindNotFound, Detail: id}
	}
	return d, nil
}

func (r *RemoteFetcher) FetchPreview(ctx context.Context, rawCredential, id string) (types.PreviewImage, error) {
	out := r.get(ctx, "/api/processes/"+url.PathEscape(id)+"/svg", token.Normalize(rawCredential), "remote_preview")
	if !out.OK() || len(out.Body) == 0 {
		return types.PreviewImage{}, &proxy.FetchError{Kind: proxy.KindNotFound, Detail: id}
	}
	return types.PreviewImage{ID: id, ContentType: out.Header.Get("Content-Type"), Data: out.Body}, nil
}

func (r *RemoteFetcher) get(ctx context.Context, path, tok, endpoint string) upstream.Outcome {
	h := http.Header{}
	if token.Present(tok) {
		h.Set("Authorization", token.BearerHeader(tok))
	}
	return r.client.Call(ctx, upstream.Request{URL: r.baseURL + path, Header: h, Endpoint: endpoint})
}

// remoteError rebuilds the server's classified error from its JSON body.
func remoteError(out upstream.Outcome) error {
	var er types.ErrorResponse
	if len(out.Body) > 0 && json.Unmarshal(out.Body, &er) == nil {
		if k := proxy.ParseKind(er.Kind); k != proxy.KindUnknown {
			return &proxy.FetchError{Kind: k, Detail: er.Error}
		}
	}
	return &proxy.FetchError{Kind: proxy.KindUpstream, Detail: out.Detail()}
}
