package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/zll123456354/edge-privacy-gateway/internal/audit"
	"github.com/zll123456354/edge-privacy-gateway/internal/redaction"
	"github.com/zll123456354/edge-privacy-gateway/internal/websocket"
	"go.uber.org/zap"
)

const auditTimeout = 2 * time.Second

// readBody reads a bounded POST body. Any read failure is reported as invalid JSON.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, redaction.ErrInvalidJSON
	}
	return body, nil
}

// handleOCR recognizes an identity document and returns masked and original fields
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, redaction.ErrMethodNotAllowed)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := redaction.DecodeDocumentRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}

	mode := redaction.ParseMode(r.Header.Get("X-Mode"))
	result := s.service.RecognizeDocument(r.Context(), req, mode)

	requestID := redaction.RequestIDFromContext(r.Context())
	s.recordAudit(r.Context(), audit.Entry{
		RequestID:        requestID,
		Route:            routeOCR,
		Mode:             string(mode),
		Source:           result.Source,
		Reason:           result.Reason,
		Location:         result.Status.Location,
		RawDataLeftCloud: result.Status.RawDataLeftCloud,
		ExecutedOnEdge:   result.Status.ExecutedOnEdge,
		ElapsedMs:        result.Status.ElapsedMs,
		Timestamp:        time.Now(),
	})

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeDocumentProcessed,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: websocket.DocumentProcessedEvent{
			RequestID:        requestID,
			Mode:             string(mode),
			Side:             req.Side,
			Source:           result.Source,
			RawDataLeftCloud: result.Status.RawDataLeftCloud,
			ElapsedMs:        result.Status.ElapsedMs,
		},
	})

	writeJSON(w, http.StatusOK, result)
}

// handleMask masks PII in free text
func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, redaction.ErrMethodNotAllowed)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	text, err := redaction.DecodeTextRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}

	result := s.service.MaskText(r.Context(), text)

	requestID := redaction.RequestIDFromContext(r.Context())
	findings := make(map[string]int, len(result.Findings))
	total := 0
	for _, f := range result.Findings {
		findings[f.EntityType] = f.Count
		total += f.Count
	}

	s.recordAudit(r.Context(), audit.Entry{
		RequestID: requestID,
		Route:     routeMask,
		Findings:  findings,
		Timestamp: time.Now(),
	})

	if total > 0 {
		s.wsHub.BroadcastEvent(websocket.Event{
			Type:      websocket.EventTypeTextMasked,
			Timestamp: time.Now(),
			RequestID: requestID,
			Data: websocket.TextMaskedEvent{
				RequestID:     requestID,
				Findings:      result.Findings,
				TotalFindings: total,
			},
		})
	}

	writeJSON(w, http.StatusOK, result)
}

// handleNotFound answers every other /api/ path
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, redaction.ErrNotFound)
}

// recordAudit stores an entry without holding up the response. The write outlives
// the request context but is bounded by auditTimeout.
func (s *Server) recordAudit(ctx context.Context, entry audit.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	go func() {
		defer cancel()
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.WithRequestID(entry.RequestID).Warn("Failed to record audit entry", zap.Error(err))
		}
	}()
}
