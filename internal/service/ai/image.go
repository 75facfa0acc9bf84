package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ParseDataURI splits a browser-supplied data URI ("data:image/png;base64,...")
// into its MIME type and decoded payload.
func ParseDataURI(uri string) (mimeType string, data []byte, err error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", nil, errors.New("malformed data uri: missing payload separator")
	}

	meta, ok = strings.CutPrefix(meta, "data:")
	if !ok {
		return "", nil, errors.New("malformed data uri: missing data: prefix")
	}

	mimeType, _, _ = strings.Cut(meta, ";")
	if mimeType == "" {
		return "", nil, errors.New("malformed data uri: empty mime type")
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data uri payload: %w", err)
	}
	return mimeType, data, nil
}
