package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	// EnvAppCode holds the recognition service credential
	EnvAppCode = "ALIYUN_OCR_APPCODE"
	// EnvRecognitionURL overrides the recognition endpoint
	EnvRecognitionURL = "ALIYUN_OCR_URL"

	// DefaultRecognitionURL is the ID card recognition endpoint used when none is configured
	DefaultRecognitionURL = "https://cardnumber.market.alicloudapi.com/rest/160601/ocr/ocr_idcard.json"
)

// Store holds the active configuration and the viper instance it was loaded from.
// The active configuration is swapped atomically when the config file changes.
type Store struct {
	v       *viper.Viper
	current atomic.Pointer[Config]
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Store, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/edge-gateway/")
	v.AddConfigPath("$HOME/.edge-gateway/")

	// Environment variable overrides
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The recognition credential keeps its provider-specific names, without the prefix
	if err := v.BindEnv("recognition.app_code", EnvAppCode); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvAppCode, err)
	}
	if err := v.BindEnv("recognition.url", EnvRecognitionURL); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvRecognitionURL, err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	s := &Store{v: v}
	s.current.Store(cfg)
	return s, nil
}

// NewStore wraps an already built configuration. Used by tests and embedders.
func NewStore(cfg *Config) *Store {
	s := &Store{v: viper.New()}
	s.current.Store(cfg)
	return s
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := GetDefaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Recognition.URL == "" {
		cfg.Recognition.URL = DefaultRecognitionURL
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Current returns the active configuration
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Lookup resolves a configuration key the way the recognition layer expects:
// a non-blank process environment value wins, otherwise the active config file value is used.
// Unknown keys with no environment value resolve to "".
func (s *Store) Lookup(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	cfg := s.Current()
	switch key {
	case EnvAppCode:
		return strings.TrimSpace(cfg.Recognition.AppCode)
	case EnvRecognitionURL:
		return strings.TrimSpace(cfg.Recognition.URL)
	default:
		return ""
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Recognition.Timeout <= 0 {
		return fmt.Errorf("invalid recognition timeout: %s", config.Recognition.Timeout)
	}

	if _, err := url.ParseRequestURI(config.Recognition.URL); err != nil {
		return fmt.Errorf("invalid recognition url: %w", err)
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.WebSocket.Enabled && !strings.HasPrefix(config.WebSocket.Path, "/") {
		return fmt.Errorf("invalid websocket path: %q", config.WebSocket.Path)
	}

	if config.Audit.Enabled && config.Audit.RedisURL == "" {
		return fmt.Errorf("audit is enabled but audit.redis_url is empty")
	}

	return nil
}

// Watch starts watching the configuration file for changes. A changed file that fails
// to decode or validate is reported through onError and the previous configuration stays active.
// Watch is a no-op when no config file was loaded.
func (s *Store) Watch(onChange func(*Config), onError func(error)) {
	if s.v.ConfigFileUsed() == "" {
		return
	}

	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(s.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}

		s.current.Store(cfg)
		if onChange != nil {
			onChange(cfg)
		}
	})
	s.v.WatchConfig()
}

// ConfigFileUsed returns the path of the loaded config file, if any
func (s *Store) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}
