package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/procproxy/docs.go -o internal/httpapi/docs`.
//
// @title           procproxy API
// @version         1.0
// @description     Authenticated proxy for a remote process catalogue: owned lists, details and SVG previews.
//
// @contact.name   procproxy maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
