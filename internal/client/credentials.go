package client

import (
	"context"
	"errors"
	"os"

	"procproxy/internal/common/fsutil"
)

// CredentialSource supplies a raw token on demand. It may perform I/O and
// fail; the controller treats any failure as "no credential".
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticCredentials always returns the same raw value.
type StaticCredentials string

func (s StaticCredentials) Token(context.Context) (string, error) { return string(s), nil }

// EnvCredentials reads the raw token from an environment variable on every call.
type EnvCredentials struct{ Var string }

func (e EnvCredentials) Token(context.Context) (string, error) {
	v, ok := os.LookupEnv(e.Var)
	if !ok {
		return "", errors.New("credential variable not set: " + e.Var)
	}
	return v, nil
}

// FileCredentials re-reads a token file on every call so an external
// refresher can rotate it in place.
type FileCredentials struct{ Path string }

func (f FileCredentials) Token(context.Context) (string, error) {
	return fsutil.ReadTrimmed(f.Path)
}
