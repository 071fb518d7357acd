package csr

import (
	"encoding/base64"
	"regexp"
	"strings"
)

const (
	beginMarker = "-----BEGIN CERTIFICATE REQUEST-----"
	endMarker   = "-----END CERTIFICATE REQUEST-----"
)

var (
	pemBodyPattern    = regexp.MustCompile(`(?s)-----BEGIN CERTIFICATE REQUEST-----\s*(.*?)\s*-----END CERTIFICATE REQUEST-----`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ValidateFormat reports whether text carries BEGIN/END CERTIFICATE REQUEST markers with a
// cleanly decoding base64 body between them. It is a structural check only.
func ValidateFormat(text string) bool {
	if !strings.Contains(text, beginMarker) || !strings.Contains(text, endMarker) {
		return false
	}

	match := pemBodyPattern.FindStringSubmatch(text)
	if match == nil {
		return false
	}

	body := whitespacePattern.ReplaceAllString(match[1], "")
	_, err := base64.StdEncoding.DecodeString(body)
	return err == nil
}
