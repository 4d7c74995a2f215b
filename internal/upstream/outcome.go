package upstream

import (
	"fmt"
	"net/http"
)

// Kind classifies the result of a call against the remote API.
type Kind int

const (
	// KindNone means no attempt was made (e.g. the context was already done).
	KindNone Kind = iota
	KindSuccess
	KindClientError
	KindServerError
	KindTransportError
	KindUnexpectedStatus
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindClientError:
		return "client_error"
	case KindServerError:
		return "server_error"
	case KindTransportError:
		return "transport_error"
	case KindUnexpectedStatus:
		return "unexpected_status"
	default:
		return "none"
	}
}

// retryable reports whether another attempt could change the result.
// Auth failures never qualify: a bad credential stays bad.
func (k Kind) retryable() bool {
	return k == KindServerError || k == KindTransportError
}

// Outcome is the last observed result of a logical request.
type Outcome struct {
	Kind     Kind
	Status   int
	Body     []byte
	Header   http.Header
	Err      error
	Attempts int
}

// OK reports a 200 response.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Detail is a short human-readable description for logs and error messages.
func (o Outcome) Detail() string {
	switch o.Kind {
	case KindNone:
		return "no attempt made"
	case KindTransportError:
		return fmt.Sprintf("transport error after %d attempt(s): %v", o.Attempts, o.Err)
	default:
		return fmt.Sprintf("status %d after %d attempt(s)", o.Status, o.Attempts)
	}
}

func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusOK:
		return KindSuccess
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindClientError
	case status >= 500 && status <= 599:
		return KindServerError
	default:
		return KindUnexpectedStatus
	}
}
