package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Recognition RecognitionConfig `yaml:"recognition" mapstructure:"recognition"`
	Privacy     PrivacyConfig     `yaml:"privacy" mapstructure:"privacy"`
	Static      StaticConfig      `yaml:"static" mapstructure:"static"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	WebSocket   WebSocketConfig   `yaml:"websocket" mapstructure:"websocket"`
	Audit       AuditConfig       `yaml:"audit" mapstructure:"audit"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// RecognitionConfig contains the document recognition upstream settings.
// AppCode and URL are normally supplied through ALIYUN_OCR_APPCODE and ALIYUN_OCR_URL.
type RecognitionConfig struct {
	AppCode string        `yaml:"app_code" mapstructure:"app_code"`
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PrivacyConfig selects the text detectors
type PrivacyConfig struct {
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
}

// StaticConfig points at the directory holding index.html. Empty serves the embedded page.
type StaticConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains configuration for the live event feed
type WebSocketConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	Username        string        `yaml:"username" mapstructure:"username"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Events          struct {
		BroadcastRequests    bool `yaml:"broadcast_requests" mapstructure:"broadcast_requests"`
		BroadcastDocuments   bool `yaml:"broadcast_documents" mapstructure:"broadcast_documents"`
		BroadcastText        bool `yaml:"broadcast_text" mapstructure:"broadcast_text"`
		BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	} `yaml:"events" mapstructure:"events"`
}

// AuditConfig controls the execution-metadata audit trail
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	RedisURL   string `yaml:"redis_url" mapstructure:"redis_url"`
	Key        string `yaml:"key" mapstructure:"key"`
	MaxEntries int64  `yaml:"max_entries" mapstructure:"max_entries"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Recognition: RecognitionConfig{
			URL:     DefaultRecognitionURL,
			Timeout: 8 * time.Second,
		},
		Privacy: PrivacyConfig{
			Detectors: []string{"all"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			RedisURL:   "redis://localhost:6379/0",
			Key:        "edge-gateway:audit",
			MaxEntries: 1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
	cfg.Logging.File.Path = "logs/gateway.log"
	cfg.WebSocket.Events.BroadcastRequests = true
	cfg.WebSocket.Events.BroadcastDocuments = true
	cfg.WebSocket.Events.BroadcastText = true
	cfg.WebSocket.Events.BroadcastConnections = true
	return cfg
}
