package redaction

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"github.com/zll123456354/edge-privacy-gateway/internal/metrics"
	"github.com/zll123456354/edge-privacy-gateway/internal/privacy"
	"github.com/zll123456354/edge-privacy-gateway/internal/recognition"
)

type fakeRecognizer struct {
	doc   recognition.Document
	err   error
	calls int
	cfg   recognition.Config
	side  string
}

func (f *fakeRecognizer) Recognize(_ context.Context, cfg recognition.Config, _ string, side string) (recognition.Document, error) {
	f.calls++
	f.cfg = cfg
	f.side = side
	return f.doc, f.err
}

func newTestService(t *testing.T, rec Recognizer, env map[string]string) (*Service, *metrics.Metrics) {
	t.Helper()
	log := logger.NewNop()
	detector, err := privacy.New(config.PrivacyConfig{Detectors: []string{"all"}}, log)
	require.NoError(t, err)
	m := metrics.New()
	read := func(key string) string { return env[key] }
	return NewService(rec, read, detector, m, log), m
}

func TestRecognizeDocumentFallback(t *testing.T) {
	rec := &fakeRecognizer{err: recognition.ErrNotConfigured}
	svc, m := newTestService(t, rec, nil)

	result := svc.RecognizeDocument(context.Background(), DocumentRequest{Image: "AAAA", Side: recognition.SideFace}, ModeEdge)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, "张*", result.Masked.Name)
	assert.Equal(t, "男", result.Masked.Sex)
	assert.Equal(t, "汉", result.Masked.Nationality)
	assert.Equal(t, "1990****", result.Masked.Birth)
	assert.Equal(t, "北京市朝阳区****", result.Masked.Address)
	assert.Equal(t, "110************8888", result.Masked.ID)

	assert.Equal(t, "张三", result.Original["name"])
	assert.Equal(t, true, result.Original["success"])

	assert.Equal(t, "Edge Node (Asia)", result.Status.Location)
	assert.False(t, result.Status.RawDataLeftCloud)
	assert.True(t, result.Status.ExecutedOnEdge)
	assert.GreaterOrEqual(t, result.Status.ElapsedMs, int64(0))
	assert.Equal(t, []string{"身份证", "姓名", "地址"}, result.Status.FieldsDetected)

	assert.Equal(t, config.DefaultRecognitionURL, rec.cfg.Endpoint)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recognitions.WithLabelValues(SourceFallback, "not_configured")))
}

func TestRecognizeDocumentUpstream(t *testing.T) {
	rec := &fakeRecognizer{doc: recognition.Document{
		"name":    "李四",
		"sex":     "女",
		"birth":   "19851230",
		"address": "上海市",
		"num":     "31010119851230002X",
		"extra":   map[string]any{"confidence": 0.9},
	}}
	env := map[string]string{config.EnvAppCode: "real-code", config.EnvRecognitionURL: "https://ocr.example.com"}
	svc, _ := newTestService(t, rec, env)

	result := svc.RecognizeDocument(context.Background(), DocumentRequest{Image: "AAAA", Side: recognition.SideBack}, ModeCloud)

	assert.Equal(t, SourceUpstream, result.Source)
	assert.Equal(t, "李*", result.Masked.Name)
	assert.Equal(t, "", result.Masked.Nationality)
	assert.Equal(t, "上海市****", result.Masked.Address)
	assert.Equal(t, "310************002X", result.Masked.ID)
	assert.True(t, result.Status.RawDataLeftCloud)

	// Upstream documents pass through untouched, unknown keys included
	assert.Equal(t, rec.doc, result.Original)

	assert.Equal(t, "real-code", rec.cfg.AppCode)
	assert.Equal(t, "https://ocr.example.com", rec.cfg.Endpoint)
	assert.Equal(t, recognition.SideBack, rec.side)
}

func TestRecognizeDocumentUpstreamFailure(t *testing.T) {
	rec := &fakeRecognizer{err: errors.Join(recognition.ErrTimeout)}
	svc, m := newTestService(t, rec, map[string]string{config.EnvAppCode: "real-code"})

	result := svc.RecognizeDocument(context.Background(), DocumentRequest{Image: "AAAA", Side: recognition.SideFace}, ModeEdge)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, "timeout", result.Reason)
	assert.Equal(t, "张三", result.Original["name"])
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recognitions.WithLabelValues(SourceFallback, "timeout")))
}

func TestRecognizeDocumentSparseUpstream(t *testing.T) {
	rec := &fakeRecognizer{doc: recognition.Document{"success": false, "name": 42}}
	svc, _ := newTestService(t, rec, map[string]string{config.EnvAppCode: "real-code"})

	result := svc.RecognizeDocument(context.Background(), DocumentRequest{Image: "AAAA"}, ModeEdge)

	assert.Equal(t, MaskedFields{
		Name:  "*",
		Birth: "****",
		ID:    "********",
	}, result.Masked)
}

func TestMaskText(t *testing.T) {
	svc, m := newTestService(t, &fakeRecognizer{}, nil)

	result := svc.MaskText(context.Background(), "call 13800001234 now")
	assert.Equal(t, "call 138****1234 now", result.Result)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TextFindings.WithLabelValues(privacy.EntityPhone)))

	assert.Equal(t, "***@***", svc.MaskText(context.Background(), "a@b.com").Result)
	assert.Equal(t, "", svc.MaskText(context.Background(), "").Result)
}

func TestDecodeDocumentRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    DocumentRequest
		wantErr error
	}{
		{"face default", `{"image":"AAAA"}`, DocumentRequest{Image: "AAAA", Side: "face"}, nil},
		{"back", `{"image":"AAAA","side":"back"}`, DocumentRequest{Image: "AAAA", Side: "back"}, nil},
		{"unknown side", `{"image":"AAAA","side":"top"}`, DocumentRequest{Image: "AAAA", Side: "face"}, nil},
		{"empty image", `{"image":""}`, DocumentRequest{}, ErrImageRequired},
		{"blank image", `{"image":"   "}`, DocumentRequest{}, ErrImageRequired},
		{"image not string", `{"image":123}`, DocumentRequest{}, ErrImageRequired},
		{"missing image", `{}`, DocumentRequest{}, ErrImageRequired},
		{"json array", `[1]`, DocumentRequest{}, ErrImageRequired},
		{"json null", `null`, DocumentRequest{}, ErrImageRequired},
		{"bad json", `{"image":`, DocumentRequest{}, ErrInvalidJSON},
		{"empty body", ``, DocumentRequest{}, ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDocumentRequest([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTextRequest(t *testing.T) {
	text, err := DecodeTextRequest([]byte(`{"text":""}`))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = DecodeTextRequest([]byte(`{"text":5}`))
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = DecodeTextRequest([]byte(`{}`))
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = DecodeTextRequest([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestParseModeAndContext(t *testing.T) {
	assert.Equal(t, ModeCloud, ParseMode("cloud"))
	assert.Equal(t, ModeEdge, ParseMode("Cloud"))
	assert.Equal(t, ModeEdge, ParseMode(""))

	assert.Equal(t, "unknown", RequestIDFromContext(context.Background()))
	assert.Equal(t, "req-9", RequestIDFromContext(WithRequestID(context.Background(), "req-9")))
}
