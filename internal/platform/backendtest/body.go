package backendtest

import (
	"bytes"
	"io"
	"net/http"
)

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func nopBody(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}
