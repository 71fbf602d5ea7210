// ABOUTME: Request construction helpers: URL joining, header defaults, JSON bodies
// ABOUTME: Reads the bearer token from the credential store once per request

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/opsdesk/opsdesk/internal/credentials"
)

var absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// BuildURL joins base and endpoint. Absolute endpoints are returned unchanged;
// otherwise the two are concatenated verbatim, so endpoint should start with "/".
func BuildURL(base, endpoint string) string {
	if absoluteURL.MatchString(endpoint) {
		return endpoint
	}
	return base + endpoint
}

// BuildHeaders returns the JSON content type, a bearer Authorization header when
// store holds a token, and extra merged last so callers can override either.
func BuildHeaders(store credentials.Store, extra http.Header) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	if store != nil {
		if token, ok := store.Token(); ok {
			h.Set("Authorization", "Bearer "+token)
		}
	}

	mergeHeaders(h, extra)
	return h
}

// mergeHeaders copies src into dst, replacing any existing values per key.
func mergeHeaders(dst, src http.Header) {
	for key, values := range src {
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// serializeBody encodes body as JSON. A nil body yields a nil reader so
// bodiless requests send nothing.
func serializeBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
