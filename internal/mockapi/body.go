// ABOUTME: Request body helpers for the fake backend
// ABOUTME: Lets middleware read a body without consuming it

package mockapi

import (
	"bytes"
	"io"
	"net/http"
)

// readAllAndRestore reads the request body and puts an identical reader back.
func readAllAndRestore(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, err
}
