package validate

import "strings"

const MaxFileSize int64 = 10 * 1024 * 1024

// IsImage reports whether the declared content type indicates an image.
// The real format is sniffed again at decode time; this only rejects
// uploads that do not even claim to be images.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
