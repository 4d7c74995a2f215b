package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"procproxy/internal/shape"
	"procproxy/internal/token"
	"procproxy/internal/upstream"
	"procproxy/pkg/types"
)

// Service orchestrates token normalization, the retrying upstream client and
// shape resolution.
type Service struct {
	baseURL         string
	lists           *upstream.Client
	previews        *upstream.Client
	resolver        *shape.Resolver
	maxPreviewBytes int64
	log             zerolog.Logger
}

// New constructs a Service from cfg, applying defaults for unset fields.
func New(cfg Config) *Service {
	s := &Service{
		baseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		maxPreviewBytes: cfg.MaxPreviewBytes,
		log:             cfg.Logger,
		resolver:        shape.NewResolver(cfg.Logger),
	}
	if s.maxPreviewBytes <= 0 {
		s.maxPreviewBytes = defaultMaxPreviewBytes
	}
	if cfg.Client != nil {
		s.lists, s.previews = cfg.Client, cfg.Client
		return s
	}
	opts := upstream.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		MaxRetries:     cfg.MaxRetries,
		BackoffUnit:    cfg.BackoffUnit,
		Logger:         cfg.Logger,
	}
	s.lists = upstream.New(opts)
	opts.MaxBodyBytes = s.maxPreviewBytes
	s.previews = upstream.New(opts)
	return s
}

// BaseURL returns the configured upstream base URL.
func (s *Service) BaseURL() string { return s.baseURL }

// Ready reports whether an upstream base URL is configured.
func (s *Service) Ready() bool { return s.baseURL != "" }

// FetchOwned returns the processes owned by the holder of rawCredential. On
// success the slice is never nil; an empty slice means the user owns nothing.
func (s *Service) FetchOwned(ctx context.Context, rawCredential string) ([]types.ProcessSummary, error) {
	tok := token.Normalize(rawCredential)
	if !token.Present(tok) {
		return nil, newError(KindNoCredential, "")
	}
	out := s.lists.Call(ctx, upstream.Request{
		URL:      s.baseURL + "/processes/owned",
		Header:   authHeader(tok, acceptJSON),
		Endpoint: "owned",
	})
	if err := s.classify(out, "owned"); err != nil {
		return nil, err
	}
	items := s.resolver.Summaries(s.resolver.ResolveList(out.Body))
	s.log.Debug().Int("count", len(items)).Int("attempts", out.Attempts).Msg("owned processes fetched")
	return items, nil
}

// FetchDetail returns a single process by id.
func (s *Service) FetchDetail(ctx context.Context, rawCredential, id string) (types.ProcessDetail, error) {
	tok := token.Normalize(rawCredential)
	if !token.Present(tok) {
		return types.ProcessDetail{}, newError(KindNoCredential, "")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return types.ProcessDetail{}, newError(KindNotFound, "empty id")
	}
	out := s.lists.Call(ctx, upstream.Request{
		URL:      s.baseURL + "/processes/" + url.PathEscape(id),
		Header:   authHeader(tok, acceptJSON),
		Endpoint: "detail",
	})
	if out.Kind == upstream.KindUnexpectedStatus && out.Status == http.StatusNotFound {
		return types.ProcessDetail{}, newError(KindNotFound, id)
	}
	if err := s.classify(out, "detail"); err != nil {
		return types.ProcessDetail{}, err
	}
	d, ok := shape.Detail(s.resolver.ResolveObject(out.Body))
	if !ok {
		return types.ProcessDetail{}, newError(KindNotFound, id)
	}
	return d, nil
}

// FetchPreview returns the preview image for id. It makes a single attempt;
// every failure degrades to KindNotFound so a missing preview never fails a
// whole view. rawCredential may be empty: the preview endpoint accepts
// anonymous requests.
func (s *Service) FetchPreview(ctx context.Context, rawCredential, id string) (types.PreviewImage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.PreviewImage{}, newError(KindNotFound, "empty id")
	}
	h := authHeader(token.Normalize(rawCredential), acceptPreview)
	out := s.previews.Call(ctx, upstream.Request{
		URL:           s.baseURL + "/processes/" + url.PathEscape(id) + "/svg",
		Header:        h,
		Endpoint:      "preview",
		SingleAttempt: true,
	})
	if !out.OK() {
		s.log.Debug().Str("id", id).Str("detail", out.Detail()).Msg("preview unavailable")
		return types.PreviewImage{}, newError(KindNotFound, id)
	}
	data, ctype, ok := previewPayload(out.Body, out.Header.Get("Content-Type"))
	if !ok {
		s.log.Debug().Str("id", id).Msg("preview body carried no image")
		return types.PreviewImage{}, newError(KindNotFound, id)
	}
	return types.PreviewImage{ID: id, ContentType: ctype, Data: data}, nil
}

// classify maps a non-success outcome onto a FetchError.
func (s *Service) classify(out upstream.Outcome, endpoint string) error {
	switch out.Kind {
	case upstream.KindSuccess:
		return nil
	case upstream.KindClientError:
		s.log.Warn().Str("endpoint", endpoint).Int("status", out.Status).Msg("upstream rejected credential")
		return newError(KindAuthExpired, out.Detail())
	default:
		s.log.Warn().Str("endpoint", endpoint).Str("kind", out.Kind.String()).Str("detail", out.Detail()).Msg("upstream fetch failed")
		return newError(KindUpstream, out.Detail())
	}
}

// previewPayload extracts image bytes from a 200 response. The preview
// endpoint answers with raw markup, a JSON envelope {"svg": "..."}, or a
// JSON error body despite the 200.
func previewPayload(body []byte, contentType string) ([]byte, string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", false
	}
	if trimmed[0] == '{' || strings.Contains(strings.ToLower(contentType), "json") {
		var env map[string]any
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, "", false
		}
		if _, isErr := env["error"]; isErr {
			return nil, "", false
		}
		svg, _ := env["svg"].(string)
		if strings.TrimSpace(svg) == "" {
			return nil, "", false
		}
		return []byte(svg), defaultPreviewType, true
	}
	if contentType == "" || strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		contentType = defaultPreviewType
	}
	return body, contentType, true
}

const (
	acceptJSON    = "application/json"
	acceptPreview = "image/svg+xml, image/*;q=0.9, application/json;q=0.5"
)

// authHeader builds request headers; an empty tok sends the request anonymously.
func authHeader(tok, accept string) http.Header {
	h := http.Header{}
	if token.Present(tok) {
		h.Set("Authorization", token.BearerHeader(tok))
	}
	h.Set("Accept", accept)
	return h
}
