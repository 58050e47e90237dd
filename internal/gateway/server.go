package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/zll123456354/edge-privacy-gateway/internal/audit"
	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"github.com/zll123456354/edge-privacy-gateway/internal/metrics"
	"github.com/zll123456354/edge-privacy-gateway/internal/privacy"
	"github.com/zll123456354/edge-privacy-gateway/internal/recognition"
	"github.com/zll123456354/edge-privacy-gateway/internal/redaction"
	"github.com/zll123456354/edge-privacy-gateway/internal/web"
	"github.com/zll123456354/edge-privacy-gateway/internal/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Version is reported by /info and set by the main package
var Version = "dev"

// maxBodySize bounds request bodies; base64 images dominate
const maxBodySize = 10 << 20

// Server represents the gateway HTTP server
type Server struct {
	config   *config.Store
	logger   *logger.Logger
	detector *privacy.Detector
	service  *redaction.Service
	metrics  *metrics.Metrics
	audit    audit.Recorder
	router   *mux.Router
	server   *http.Server
	wsHub    *websocket.Hub

	recognizer      redaction.Recognizer
	shutdownTimeout time.Duration
}

// Option customizes a Server
type Option func(*Server)

// WithRecognizer replaces the HTTP recognition client
func WithRecognizer(r redaction.Recognizer) Option {
	return func(s *Server) { s.recognizer = r }
}

// WithAuditRecorder replaces the recorder selected from configuration
func WithAuditRecorder(r audit.Recorder) Option {
	return func(s *Server) { s.audit = r }
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a new gateway server instance
func New(store *config.Store, log *logger.Logger, opts ...Option) (*Server, error) {
	cfg := store.Current()

	s := &Server{
		config:          store,
		logger:          log.WithComponent("gateway"),
		metrics:         metrics.New(),
		// Paths are routed as received; cleaning would answer with a 301 and drop the body.
		router:          mux.NewRouter().SkipClean(true),
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	detector, err := privacy.New(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return nil, fmt.Errorf("failed to create privacy detector: %w", err)
	}
	s.detector = detector

	if s.recognizer == nil {
		s.recognizer = recognition.NewClient(&http.Client{}, cfg.Recognition.Timeout, log.WithComponent("recognition"))
	}

	if s.audit == nil {
		if s.audit, err = newAuditRecorder(cfg.Audit, log.WithComponent("audit")); err != nil {
			return nil, fmt.Errorf("failed to create audit recorder: %w", err)
		}
	}

	s.service = redaction.NewService(s.recognizer, store.Lookup, detector, s.metrics, log.WithComponent("redaction"))

	hubConfig := &websocket.HubConfig{}
	if cfg.WebSocket.Enabled {
		hubConfig = websocket.NewHubConfig(cfg.WebSocket)
	}
	s.wsHub = websocket.NewHub(hubConfig, log.WithComponent("websocket").Logger)

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

func newAuditRecorder(cfg config.AuditConfig, log *logger.Logger) (audit.Recorder, error) {
	if !cfg.Enabled {
		return audit.NewMemoryRecorder(int(cfg.MaxEntries)), nil
	}
	return audit.NewRedisRecorder(cfg, log)
}

// setupRoutes configures all HTTP routes. The static catch-all is registered last.
func (s *Server) setupRoutes() {
	cfg := s.config.Current()

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/audit", s.handleAudit).Methods(http.MethodGet)

	if cfg.Metrics.Enabled {
		s.router.Handle(cfg.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	if cfg.WebSocket.Enabled {
		s.router.HandleFunc(cfg.WebSocket.Path, s.wsHub.HandleWebSocket).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.recoveryMiddleware)
	api.HandleFunc("/ocr", s.handleOCR)
	api.HandleFunc("/mask", s.handleMask)
	api.PathPrefix("/").HandlerFunc(s.handleNotFound)

	s.router.PathPrefix("/").Handler(web.IndexHandler(cfg.Static.Dir))
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP and the event hub until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	defer s.audit.Close()

	s.logger.Info("Starting edge privacy gateway",
		zap.String("addr", s.server.Addr),
		zap.Bool("recognition_configured", s.recognitionConfigured()),
		zap.Strings("detectors", s.detector.GetEnabledRules()),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.wsHub.Run(gctx)
	})

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Stopping edge privacy gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) recognitionConfigured() bool {
	return recognition.ResolveConfig(s.config.Lookup).Enabled()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	cfg := s.config.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":                   "edge-privacy-gateway",
		"version":                Version,
		"recognition_configured": s.recognitionConfigured(),
		"detectors":              s.detector.GetEnabledRules(),
		"websocket_enabled":      cfg.WebSocket.Enabled,
		"audit_enabled":          cfg.Audit.Enabled,
		"websocket_stats":        s.wsHub.Stats(),
	})
}

// handleAudit returns the most recent audit entries, newest first
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, &redaction.InputError{Status: http.StatusBadRequest, Message: "Invalid limit"})
			return
		}
		limit = n
	}

	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to read audit entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
