package sanitizer

import (
	"strings"
)

func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	parts := strings.SplitN(url, "/", 2)
	domain := strings.ToLower(parts[0])
	var path string
	if len(parts) > 1 {
		path = "/" + parts[1]
	}
	return strings.TrimSuffix("https://"+domain+path, "/")
}

// NormalizeHandle strips a leading "@" and surrounding spaces from a social media handle.
// Full profile URLs are normalized like any other URL.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "/") {
		return NormalizeURL(handle)
	}
	return strings.TrimPrefix(handle, "@")
}
