package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: upstream unavailable
	Error string `json:"error" example:"upstream unavailable"`
	// HTTP status code.
	// example: 502
	Code int `json:"code" example:"502"`
	// Machine-readable failure class (no_credential, auth_expired, upstream, not_found).
	// example: upstream
	Kind string `json:"kind,omitempty" example:"upstream"`
}

// OwnedResponse documents GET /api/processes/owned. The handler always
// encodes a bare JSON array; this alias exists for the API docs.
type OwnedResponse []ProcessSummary
