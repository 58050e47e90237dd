package recognition

import (
	"errors"
	"strings"

	"github.com/zll123456354/edge-privacy-gateway/internal/config"
)

// Document sides accepted by the recognition service
const (
	SideFace = "face"
	SideBack = "back"
)

// PlaceholderAppCode is the sample credential shipped in example configs. It never
// reaches the upstream.
const PlaceholderAppCode = "YOUR_APP_CODE_HERE"

var (
	// ErrNotConfigured means no usable credential was resolved and no call was made
	ErrNotConfigured = errors.New("recognition credential not configured")
	// ErrTimeout means the upstream did not answer within the configured timeout
	ErrTimeout = errors.New("recognition timed out")
	// ErrUpstreamStatus means the upstream answered with a non-success status
	ErrUpstreamStatus = errors.New("recognition upstream returned non-success status")
	// ErrInvalidResponse means the upstream body was not a JSON object
	ErrInvalidResponse = errors.New("recognition upstream returned an invalid body")
)

// Document is the recognized document exactly as the source produced it. Upstream
// results are passed through without schema validation, so any key may be missing
// or carry a non-string value.
//
// The upstream body must still be a JSON object. An array, string, number or null
// is rejected with ErrInvalidResponse and the caller falls back, rather than being
// returned as the original document with every mask at its placeholder.
type Document map[string]any

// DocumentFields are the identity attributes read from a Document
type DocumentFields struct {
	Name        string
	Sex         string
	Nationality string
	Birth       string
	Address     string
	Num         string
}

// Fields extracts the identity attributes. Missing and non-string values read as "".
func (d Document) Fields() DocumentFields {
	return DocumentFields{
		Name:        d.str("name"),
		Sex:         d.str("sex"),
		Nationality: d.str("nationality"),
		Birth:       d.str("birth"),
		Address:     d.str("address"),
		Num:         d.str("num"),
	}
}

func (d Document) str(key string) string {
	s, _ := d[key].(string)
	return s
}

// Config is the per-request recognition configuration
type Config struct {
	AppCode  string
	Endpoint string
}

// Enabled reports whether the credential allows calling the upstream
func (c Config) Enabled() bool {
	return c.AppCode != "" && c.AppCode != PlaceholderAppCode
}

// EnvReader resolves a configuration key, returning "" when it is unset
type EnvReader func(key string) string

// ResolveConfig reads the recognition configuration through read
func ResolveConfig(read EnvReader) Config {
	cfg := Config{
		AppCode:  strings.TrimSpace(read(config.EnvAppCode)),
		Endpoint: strings.TrimSpace(read(config.EnvRecognitionURL)),
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultRecognitionURL
	}
	return cfg
}

// NormalizeSide maps a request value to a document side. Only "back" selects the back side.
func NormalizeSide(v any) string {
	if s, ok := v.(string); ok && s == SideBack {
		return SideBack
	}
	return SideFace
}

// Fallback returns the synthetic document used whenever recognition is unavailable.
// A new map is returned on every call.
func Fallback() Document {
	return Document{
		"name":        "张三",
		"sex":         "男",
		"nationality": "汉",
		"birth":       "19900307",
		"address":     "北京市朝阳区示例路88号",
		"num":         "110101199003078888",
		"success":     true,
	}
}

// Reason returns a short label for a recognition error, used in logs and metrics
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamStatus):
		return "upstream_status"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "transport"
	}
}
