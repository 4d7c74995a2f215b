package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procproxy/internal/token"
	"procproxy/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	FetchOwned(ctx context.Context, rawCredential string) ([]types.ProcessSummary, error)
	FetchDetail(ctx context.Context, rawCredential, id string) (types.ProcessDetail, error)
	FetchPreview(ctx context.Context, rawCredential, id string) (types.PreviewImage, error)
}

// readiness is optionally implemented by services that can report whether
// they are configured to reach upstream.
type readiness interface {
	Ready() bool
}

const (
	accessTokenHeader = "X-Access-Token"
	accessTokenCookie = "access_token"
)

var defaultCORSMethods = []string{http.MethodGet, http.MethodOptions}
var defaultCORSHeaders = []string{"Authorization", "Content-Type", accessTokenHeader}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5, "application/json", "image/svg+xml"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods, headers := corsAllowedMethods, corsAllowedHeaders
		if len(methods) == 0 {
			methods = defaultCORSMethods
		}
		if len(headers) == 0 {
			headers = defaultCORSHeaders
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   methods,
			AllowedHeaders:   headers,
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	h := &handlers{svc: svc}
	r.Route("/api/processes", func(api chi.Router) {
		if rateLimitRPS > 0 {
			api.Use(newClientLimiter(rateLimitRPS, rateLimitBurst).middleware)
		}
		api.Get("/owned", h.owned)
		api.Get("/{id}", h.detail)
		api.Get("/{id}/svg", h.preview)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rs, ok := svc.(readiness); ok && !rs.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not configured"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// owned godoc
// @Summary      List owned processes
// @Description  Returns the caller's processes as a JSON array, whatever shape the upstream used.
// @Tags         processes
// @Produce      json
// @Param        Authorization  header  string  false  "Bearer token (bare or JSON-wrapped)"
// @Success      200  {array}   types.ProcessSummary
// @Failure      401  {object}  types.ErrorResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /api/processes/owned [get]
func (h *handlers) owned(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	ctx, cancel := handlerContext(r.Context())
	defer cancel()

	items, err := h.svc.FetchOwned(ctx, credentialFromRequest(r))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := writeFetchError(w, err)
		logRequestEnd(r, lvl, "owned", status, start, err)
		return
	}
	if items == nil {
		items = []types.ProcessSummary{}
	}
	writeJSON(w, items)
	logRequestEnd(r, lvl, "owned", http.StatusOK, start, nil)
}

// detail godoc
// @Summary      Get one process
// @Tags         processes
// @Produce      json
// @Param        id   path      string  true  "Process id"
// @Success      200  {object}  types.ProcessDetail
// @Failure      401  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /api/processes/{id} [get]
func (h *handlers) detail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	ctx, cancel := handlerContext(r.Context())
	defer cancel()

	d, err := h.svc.FetchDetail(ctx, credentialFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := writeFetchError(w, err)
		logRequestEnd(r, lvl, "detail", status, start, err)
		return
	}
	writeJSON(w, d)
	logRequestEnd(r, lvl, "detail", http.StatusOK, start, nil)
}

// preview godoc
// @Summary      Get a process preview image
// @Description  Any upstream failure is reported as 404: a missing preview is not an error for the page.
// @Tags         processes
// @Produce      image/svg+xml
// @Param        id   path      string  true  "Process id"
// @Success      200  {file}    binary
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/processes/{id}/svg [get]
func (h *handlers) preview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	ctx, cancel := handlerContext(r.Context())
	defer cancel()

	img, err := h.svc.FetchPreview(ctx, credentialFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := writeFetchError(w, err)
		logRequestEnd(r, lvl, "preview", status, start, err)
		return
	}
	ct := img.ContentType
	if ct == "" {
		ct = "image/svg+xml"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
	logRequestEnd(r, lvl, "preview", http.StatusOK, start, nil)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// credentialFromRequest finds the caller's raw credential: the Authorization
// header first, then X-Access-Token, then the access_token cookie. The value
// may be JSON-wrapped; it is normalized downstream as well.
func credentialFromRequest(r *http.Request) string {
	if v := r.Header.Get("Authorization"); strings.TrimSpace(v) != "" {
		return token.FromAuthorization(v)
	}
	if v := r.Header.Get(accessTokenHeader); strings.TrimSpace(v) != "" {
		return token.Normalize(v)
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		v := c.Value
		if unescaped, err := url.QueryUnescape(v); err == nil {
			v = unescaped
		}
		return token.Normalize(v)
	}
	return ""
}
