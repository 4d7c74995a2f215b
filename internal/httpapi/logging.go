package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// defaultLogLevel applies when a request carries no override.
var defaultLogLevel = LevelOff

// SetDefaultLogLevel sets the request log level from a config string.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequestEnd records the outcome of a proxied call. Errors are logged at
// LevelError and above, successes from LevelInfo.
func logRequestEnd(r *http.Request, lvl LogLevel, op string, status int, start time.Time, err error) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	if zlog != nil {
		z := zlog.Info()
		if err != nil {
			z = zlog.Warn().Err(err)
		}
		z = z.Str("op", op).Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("proxy end")
		return
	}
	if err != nil {
		log.Printf("proxy end op=%s status=%d dur=%s err=%v", op, status, time.Since(start), err)
		return
	}
	log.Printf("proxy end op=%s status=%d dur=%s", op, status, time.Since(start))
}
