// Package token turns whatever the credential source hands us into a bare
// bearer value.
package token

import (
	"encoding/json"
	"strings"
)

const accessTokenKey = "access_token"

// Normalize extracts a usable bearer credential from raw. A value that begins
// with '{' and mentions "access_token" is parsed as a JSON object and its
// access_token string is returned; when that string is itself such an object
// (JSON embedded in JSON) it is unwrapped in turn. Anything else, including
// quoted or space-padded values, is returned byte for byte.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if tok, ok := fromObject(raw); ok {
		return Normalize(tok)
	}
	return raw
}

// fromObject returns the access_token field when s is a JSON object carrying
// one as a string. A parse failure is not an error: the caller keeps s.
func fromObject(s string) (string, bool) {
	if !strings.HasPrefix(s, "{") || !strings.Contains(s, `"`+accessTokenKey+`"`) {
		return "", false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return "", false
	}
	tok, ok := obj[accessTokenKey].(string)
	return tok, ok
}

// Present reports whether tok can be sent as a credential. Blank values count
// as no credential.
func Present(tok string) bool { return strings.TrimSpace(tok) != "" }

// FromAuthorization normalizes the value of an Authorization header,
// stripping a leading "Bearer" scheme in any case. A header holding only the
// scheme carries no credential.
func FromAuthorization(header string) string {
	h := strings.TrimSpace(header)
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return Normalize(h)
}

// BearerHeader formats tok for an Authorization header.
func BearerHeader(tok string) string { return "Bearer " + tok }
