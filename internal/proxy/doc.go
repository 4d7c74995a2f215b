// Package proxy fetches a user's remote processes and their previews through
// the retrying upstream client. It is structured into small files by concern:
//
//   - service.go: Service type and the FetchOwned/FetchPreview/FetchDetail operations.
//   - config.go: Config and package defaults; New applies defaults.
//   - errors.go: FetchError, error kinds and helpers (IsNoCredential, IsAuthExpired, ...).
//
// A Service holds configuration only and is safe for concurrent use by any
// number of callers. Credentials are passed per call in whatever raw form the
// caller received them and are normalized before use.
package proxy
