package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zll123456354/edge-privacy-gateway/internal/redaction"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes payload with the JSON content type and no-store caching,
// leaving either header alone when a handler already set it.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"Internal Server Error"}`)
	}

	h := w.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json; charset=utf-8")
	}
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-store")
	}

	w.WriteHeader(status)
	_, _ = w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// writeError writes a client input error as {"error": message}
func writeError(w http.ResponseWriter, err error) {
	var inputErr *redaction.InputError
	if errors.As(err, &inputErr) {
		writeJSON(w, inputErr.Status, errorBody{Error: inputErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}
