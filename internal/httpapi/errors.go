package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"procproxy/internal/proxy"
	"procproxy/pkg/types"
)

// HTTPError is implemented by errors that know their HTTP status, such as
// *proxy.FetchError.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps a failure onto the status the proxy returns. Fetch
// errors carry their own status; anything else is an internal error.
func statusForError(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeFetchError writes err with its mapped status and kind, returning the status.
func writeFetchError(w http.ResponseWriter, err error) int {
	status := statusForError(err)
	kind := ""
	if k := proxy.KindOf(err); k != proxy.KindUnknown {
		kind = k.String()
	}
	writeJSONErrorKind(w, status, err.Error(), kind)
	return status
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorKind(w, status, msg, "")
}

func writeJSONErrorKind(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}
