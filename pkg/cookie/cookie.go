// Package cookie reads values out of a serialized cookie string, the
// "name=value; other=value" form a browser exposes to scripts.
package cookie

import (
	"net/http"
	"net/url"
	"strings"
)

// Get returns the URL-decoded value of the named cookie. A value with a
// malformed escape is returned as-is.
func Get(raw, name string) (string, bool) {
	if raw == "" || name == "" {
		return "", false
	}
	prefix := name + "="
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, prefix) {
			continue
		}
		value := part[len(prefix):]
		if decoded, err := url.PathUnescape(value); err == nil {
			return decoded, true
		}
		return value, true
	}
	return "", false
}

// Join serializes cookies the way document.cookie presents them.
func Join(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
