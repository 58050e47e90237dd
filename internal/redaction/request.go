package redaction

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zll123456354/edge-privacy-gateway/internal/recognition"
)

// InputError is a client input problem reported as a 4xx response with a short message
type InputError struct {
	Status  int
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

var (
	ErrMethodNotAllowed = &InputError{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
	ErrInvalidJSON      = &InputError{Status: http.StatusBadRequest, Message: "Invalid JSON"}
	ErrImageRequired    = &InputError{Status: http.StatusBadRequest, Message: "Image is required"}
	ErrTextRequired     = &InputError{Status: http.StatusBadRequest, Message: "Text is required"}
	ErrNotFound         = &InputError{Status: http.StatusNotFound, Message: "Not Found"}
)

// decodeObject parses a JSON body. Valid JSON that is not an object yields a nil map,
// so field lookups on it simply miss.
func decodeObject(body []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, ErrInvalidJSON
	}
	m, _ := v.(map[string]any)
	return m, nil
}

// DecodeDocumentRequest validates a document recognition body
func DecodeDocumentRequest(body []byte) (DocumentRequest, error) {
	m, err := decodeObject(body)
	if err != nil {
		return DocumentRequest{}, err
	}

	image, ok := m["image"].(string)
	if !ok || strings.TrimSpace(image) == "" {
		return DocumentRequest{}, ErrImageRequired
	}

	return DocumentRequest{
		Image: image,
		Side:  recognition.NormalizeSide(m["side"]),
	}, nil
}

// DecodeTextRequest validates a text masking body. The text may be empty but must be a string.
func DecodeTextRequest(body []byte) (string, error) {
	m, err := decodeObject(body)
	if err != nil {
		return "", err
	}

	text, ok := m["text"].(string)
	if !ok {
		return "", ErrTextRequired
	}
	return text, nil
}
