package redaction

import (
	"context"
	"errors"
	"time"

	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"github.com/zll123456354/edge-privacy-gateway/internal/metrics"
	"github.com/zll123456354/edge-privacy-gateway/internal/privacy"
	"github.com/zll123456354/edge-privacy-gateway/internal/recognition"
	"go.uber.org/zap"
)

// Recognizer extracts document data from an image
type Recognizer interface {
	Recognize(ctx context.Context, cfg recognition.Config, image, side string) (recognition.Document, error)
}

// Service runs document recognition and text masking. It holds no per-request state.
type Service struct {
	recognizer Recognizer
	env        recognition.EnvReader
	detector   *privacy.Detector
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewService creates a redaction service. env is consulted on every document request,
// so credential changes take effect without a restart.
func NewService(recognizer Recognizer, env recognition.EnvReader, detector *privacy.Detector, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		recognizer: recognizer,
		env:        env,
		detector:   detector,
		metrics:    m,
		logger:     log,
	}
}

// RecognizeDocument acquires document data and masks it. Recognition failures never
// surface: the fallback document is used and the result still succeeds.
func (s *Service) RecognizeDocument(ctx context.Context, req DocumentRequest, mode Mode) *DocumentResult {
	start := time.Now()
	log := s.logger.WithRequestID(RequestIDFromContext(ctx))

	cfg := recognition.ResolveConfig(s.env)
	doc, err := s.recognizer.Recognize(ctx, cfg, req.Image, req.Side)

	source := SourceUpstream
	if err != nil {
		source = SourceFallback
		doc = recognition.Fallback()

		if errors.Is(err, recognition.ErrNotConfigured) {
			log.Debug("Recognition not configured, using fallback document")
		} else {
			log.Warn("Recognition failed, using fallback document",
				zap.String("reason", recognition.Reason(err)),
				zap.Error(err),
			)
		}
	}
	reason := recognition.Reason(err)
	s.metrics.ObserveRecognition(source, reason, time.Since(start))

	masked := MaskFields(doc.Fields())

	result := &DocumentResult{
		Status: ExecutionStatus{
			Location:         edgeLocation,
			RawDataLeftCloud: mode == ModeCloud,
			ExecutedOnEdge:   true,
			ElapsedMs:        time.Since(start).Milliseconds(),
			FieldsDetected:   fieldsDetected(),
		},
		Masked:   masked,
		Original: doc,
		Source:   source,
		Reason:   reason,
	}

	log.Info("Document processed",
		zap.String("mode", string(mode)),
		zap.String("side", req.Side),
		zap.String("source", source),
		zap.Int64("elapsed_ms", result.Status.ElapsedMs),
	)

	return result
}

// MaskText redacts phone numbers, ID numbers and email addresses in free text
func (s *Service) MaskText(ctx context.Context, text string) *TextResult {
	processed := s.detector.ProcessText(text)

	for _, f := range processed.Findings {
		s.metrics.AddTextFindings(f.EntityType, f.Count)
	}

	if len(processed.Findings) > 0 {
		s.logger.WithRequestID(RequestIDFromContext(ctx)).Info("PII masked in text",
			zap.Int("findings_count", processed.TotalFindings()),
			zap.Any("findings", processed.Findings),
		)
	}

	return &TextResult{
		Result:   processed.MaskedText,
		Findings: processed.Findings,
	}
}
