package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/zll123456354/edge-privacy-gateway/internal/privacy"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeRequestLog is emitted for every completed API request
	EventTypeRequestLog EventType = "request_log"
	// EventTypeDocumentProcessed is emitted after a document recognition request
	EventTypeDocumentProcessed EventType = "document_processed"
	// EventTypeTextMasked is emitted after a text masking request that found PII
	EventTypeTextMasked EventType = "text_masked"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	RequestID string    `json:"request_id,omitempty"`
}

// RequestLogEvent describes a completed request
type RequestLogEvent struct {
	RequestID    string        `json:"request_id"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	StatusCode   int           `json:"status_code"`
	ClientIP     string        `json:"client_ip"`
	Duration     time.Duration `json:"duration"`
	ResponseSize int64         `json:"response_size"`
}

// DocumentProcessedEvent carries execution metadata only, never document fields
type DocumentProcessedEvent struct {
	RequestID        string `json:"request_id"`
	Mode             string `json:"mode"`
	Side             string `json:"side"`
	Source           string `json:"source"`
	RawDataLeftCloud bool   `json:"raw_data_left_cloud"`
	ElapsedMs        int64  `json:"elapsed_ms"`
}

// TextMaskedEvent reports what was masked, not the text itself
type TextMaskedEvent struct {
	RequestID     string            `json:"request_id"`
	Findings      []privacy.Finding `json:"findings"`
	TotalFindings int               `json:"total_findings"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type   string      `json:"type"`
	Events []EventType `json:"events,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan Event
	ConnectedAt time.Time
	IP          string

	// subscribed is only touched by the hub goroutine; nil means all events
	subscribed map[EventType]bool
}
