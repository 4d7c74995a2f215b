package proxy

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failed fetch.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNoCredential: no usable token; no request was sent.
	KindNoCredential
	// KindAuthExpired: upstream answered 401 or 403.
	KindAuthExpired
	// KindUpstream: 5xx or transport failure after retries, or an unexpected status.
	KindUpstream
	// KindNotFound: the requested item (or its preview) is unavailable.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoCredential:
		return "no_credential"
	case KindAuthExpired:
		return "auth_expired"
	case KindUpstream:
		return "upstream"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// FetchError is the failure half of a fetch result.
type FetchError struct {
	Kind   ErrorKind
	Detail string
}

func (e *FetchError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

// StatusCode is the status the proxy answers with when a fetch fails with e.
func (e *FetchError) StatusCode() int {
	switch e.Kind {
	case KindNoCredential, KindAuthExpired:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, detail string) error {
	return &FetchError{Kind: kind, Detail: detail}
}

// KindOf returns the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsNoCredential reports whether err means no usable credential was available.
func IsNoCredential(err error) bool { return KindOf(err) == KindNoCredential }

// IsAuthExpired reports whether upstream rejected the credential.
func IsAuthExpired(err error) bool { return KindOf(err) == KindAuthExpired }

// IsUpstream reports whether the remote API failed or was unreachable.
func IsUpstream(err error) bool { return KindOf(err) == KindUpstream }

// IsNotFound reports whether the requested item or preview is unavailable.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// ParseKind is the inverse of ErrorKind.String.
func ParseKind(s string) ErrorKind {
	switch s {
	case "no_credential":
		return KindNoCredential
	case "auth_expired":
		return KindAuthExpired
	case "upstream":
		return KindUpstream
	case "not_found":
		return KindNotFound
	default:
		return KindUnknown
	}
}
