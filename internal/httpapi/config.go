package httpapi

import "time"

// requestTimeout bounds how long a proxied request may run. Zero means no
// additional timeout beyond server/connection timeouts and the upstream
// client's own deadlines.
var requestTimeout time.Duration

// SetRequestTimeout sets the per-request timeout (0 disables).
func SetRequestTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	requestTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty methods
// and headers select the defaults needed by browser clients of the proxy.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// Per-client rate limiting (opt-in).
var (
	rateLimitRPS   float64
	rateLimitBurst int
)

// SetRateLimit enables a token bucket per client address. rps <= 0 disables it.
func SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		rateLimitRPS, rateLimitBurst = 0, 0
		return
	}
	if burst <= 0 {
		burst = int(rps) + 1
	}
	rateLimitRPS, rateLimitBurst = rps, burst
}
