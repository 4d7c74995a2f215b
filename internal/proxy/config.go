package proxy

import (
	"time"

	"github.com/rs/zerolog"

	"procproxy/internal/upstream"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxPreviewBytes = 2 << 20
	defaultPreviewType     = "image/svg+xml"
)

// Config encapsulates all tunables for Service construction. There is no
// package-level state: independently configured services can coexist.
type Config struct {
	// BaseURL of the remote process API, e.g. https://api.example.com/v1.
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// MaxRetries for list and detail fetches; 0 selects the default (2),
	// negative disables retries. Preview fetches never retry.
	MaxRetries      int
	BackoffUnit     time.Duration
	MaxPreviewBytes int64
	Logger          zerolog.Logger
	// Client overrides the upstream client built from the fields above.
	Client *upstream.Client
}
