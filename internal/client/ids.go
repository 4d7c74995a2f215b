package client

import (
	"net/url"
	"strings"
)

// ExtractID returns the bare process id from ref, which is either the id
// itself or a URL (absolute or path-only) whose last path segment is the id.
func ExtractID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if !strings.Contains(ref, "/") {
		return ref
	}
	path := ref
	if u, err := url.Parse(ref); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	seg := path[strings.LastIndex(path, "/")+1:]
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	return strings.TrimSpace(seg)
}
