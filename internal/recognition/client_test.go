package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
)

func newTestClient(timeout time.Duration) *Client {
	return NewClient(nil, timeout, logger.NewNop())
}

func TestRecognizeSendsRequest(t *testing.T) {
	var got struct {
		Image     string `json:"image"`
		Configure struct {
			Side string `json:"side"`
		} `json:"configure"`
	}
	var headers http.Header

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"李四","num":"110101198001011234","success":true}`))
	}))
	defer upstream.Close()

	client := newTestClient(time.Second)
	doc, err := client.Recognize(context.Background(), Config{AppCode: "abc", Endpoint: upstream.URL}, "  data:image/png;base64,AAAA  ", SideBack)
	require.NoError(t, err)

	assert.Equal(t, "AAAA", got.Image)
	assert.Equal(t, SideBack, got.Configure.Side)
	assert.Equal(t, "APPCODE abc", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, "application/json; charset=UTF-8", headers.Get("Content-Type"))

	assert.Equal(t, "李四", doc.Fields().Name)
	assert.Equal(t, true, doc["success"])
}

func TestRecognizeNotConfigured(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	client := newTestClient(time.Second)
	for _, code := range []string{"", PlaceholderAppCode} {
		_, err := client.Recognize(context.Background(), Config{AppCode: code, Endpoint: upstream.URL}, "AAAA", SideFace)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Zero(t, calls.Load())
}

func TestRecognizeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "non-success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"quota"}`))
			},
			want: ErrUpstreamStatus,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway error</html>`))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "json null",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "json array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1,2,3]`))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "json string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`"李四"`))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "json number",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`42`))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				<-r.Context().Done()
			},
			want: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			client := newTestClient(100 * time.Millisecond)
			doc, err := client.Recognize(context.Background(), Config{AppCode: "abc", Endpoint: upstream.URL}, "AAAA", SideFace)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecognizeTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := upstream.URL
	upstream.Close()

	client := newTestClient(time.Second)
	_, err := client.Recognize(context.Background(), Config{AppCode: "abc", Endpoint: endpoint}, "AAAA", SideFace)
	require.Error(t, err)
	assert.Equal(t, "transport", Reason(err))
}

func TestStripDataURI(t *testing.T) {
	tests := map[string]string{
		"AAAA":                         "AAAA",
		" data:image/jpeg;base64,QUJD ": "QUJD",
		"data:image/svg+xml;base64,QQ": "data:image/svg+xml;base64,QQ",
		"data:text/plain;base64,QQ":    "data:text/plain;base64,QQ",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripDataURI(in), in)
	}
}

func TestResolveConfig(t *testing.T) {
	env := map[string]string{config.EnvAppCode: " code "}
	cfg := ResolveConfig(func(key string) string { return env[key] })

	assert.Equal(t, "code", cfg.AppCode)
	assert.Equal(t, config.DefaultRecognitionURL, cfg.Endpoint)
	assert.True(t, cfg.Enabled())

	assert.False(t, Config{AppCode: PlaceholderAppCode}.Enabled())
	assert.False(t, Config{}.Enabled())
}

func TestDocumentFields(t *testing.T) {
	doc := Document{"name": "王五", "sex": 1, "num": nil}
	fields := doc.Fields()
	assert.Equal(t, "王五", fields.Name)
	assert.Equal(t, "", fields.Sex)
	assert.Equal(t, "", fields.Num)

	var empty Document
	assert.Equal(t, DocumentFields{}, empty.Fields())
}

func TestFallback(t *testing.T) {
	a := Fallback()
	b := Fallback()
	a["name"] = "changed"

	assert.Equal(t, "张三", b.Fields().Name)
	assert.Equal(t, "110101199003078888", b.Fields().Num)
	assert.Equal(t, true, b["success"])
}

func TestNormalizeSideAndReason(t *testing.T) {
	assert.Equal(t, SideBack, NormalizeSide("back"))
	assert.Equal(t, SideFace, NormalizeSide("BACK"))
	assert.Equal(t, SideFace, NormalizeSide(nil))
	assert.Equal(t, SideFace, NormalizeSide(2))

	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "not_configured", Reason(ErrNotConfigured))
	assert.Equal(t, "timeout", Reason(fmt.Errorf("%w after 8s", ErrTimeout)))
}
