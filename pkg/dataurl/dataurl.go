// Package dataurl encodes and decodes data URIs of the form
// data:<mime>;base64,<payload>, the interchange format used for every image
// crossing the API boundary.
package dataurl

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const prefix = "data:"

// Encode renders raw bytes as a base64 data URI.
func Encode(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return prefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URI into its mime type and raw payload.
func Decode(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, fmt.Errorf("dataurl: missing %q prefix", prefix)
	}
	rest := uri[len(prefix):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", nil, fmt.Errorf("dataurl: missing payload separator")
	}
	header := rest[:sep]
	payload := rest[sep+1:]
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("dataurl: unsupported encoding %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("dataurl: decode payload: %w", err)
	}
	return mimeType, data, nil
}

// IsDataURL reports whether the string looks like a data URI.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, prefix)
}
