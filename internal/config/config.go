// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"time"
)

// Revocation store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8050".
	Addr string `koanf:"addr"`

	// ModelPath points at a YAML classifier artifact.
	ModelPath string `koanf:"model_path"`

	// ModelURL points at a remote classifier. It wins over ModelPath when set.
	ModelURL string `koanf:"model_url"`

	// ModelLabelPath is the gjson path of the decision in remote replies.
	ModelLabelPath string `koanf:"model_label_path"`

	// ModelTimeoutMS bounds a single remote prediction.
	ModelTimeoutMS int `koanf:"model_timeout_ms"`

	// SessionSecret signs session tokens. Falls back to SECRET_KEY.
	SessionSecret string `koanf:"session_secret"`

	// SessionTTLMinutes is the session lifetime.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SessionCookie names the session cookie.
	SessionCookie string `koanf:"session_cookie"`

	// SecureCookies marks cookies Secure; enable behind TLS.
	SecureCookies bool `koanf:"secure_cookies"`

	// RevocationStore is "memory" or "redis".
	RevocationStore string `koanf:"revocation_store"`

	// RedisURL is required when RevocationStore is "redis".
	RedisURL string `koanf:"redis_url"`

	// RevocationMaxSize caps the in-memory revocation list.
	RevocationMaxSize int `koanf:"revocation_max_size"`

	// Trend chart shape.
	TrendDays    int `koanf:"trend_days"`
	TrendWindow  int `koanf:"trend_window"`
	TrendHorizon int `koanf:"trend_horizon"`

	// Public identity provider client settings handed to the auth pages.
	IDPAPIKey            string `koanf:"idp_api_key"`
	IDPAuthDomain        string `koanf:"idp_auth_domain"`
	IDPProjectID         string `koanf:"idp_project_id"`
	IDPStorageBucket     string `koanf:"idp_storage_bucket"`
	IDPMessagingSenderID string `koanf:"idp_messaging_sender_id"`
	IDPAppID             string `koanf:"idp_app_id"`
	IDPMeasurementID     string `koanf:"idp_measurement_id"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8050",
		ModelPath:         "models/outbreak_model.yaml",
		ModelLabelPath:    "label",
		ModelTimeoutMS:    2000,
		SessionTTLMinutes: 12 * 60,
		SessionCookie:     "outbreak_session",
		RevocationStore:   StoreMemory,
		RevocationMaxSize: 50_000,
		TrendDays:         30,
		TrendWindow:       3,
		TrendHorizon:      7,
	}
}

// SessionTTL returns the session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// ModelTimeout returns the remote prediction timeout.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "" && c.ModelURL == "":
		return fmt.Errorf("%w: model_path or model_url must be set", ErrInvalidConfig)
	case c.ModelURL != "" && c.ModelTimeoutMS <= 0:
		return fmt.Errorf("%w: model_timeout_ms must be positive", ErrInvalidConfig)
	case c.SessionSecret == "":
		return fmt.Errorf("%w: session_secret (or SECRET_KEY) must be set", ErrInvalidConfig)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	case c.SessionCookie == "":
		return fmt.Errorf("%w: session_cookie must not be empty", ErrInvalidConfig)
	case c.RevocationStore != StoreMemory && c.RevocationStore != StoreRedis:
		return fmt.Errorf("%w: unknown revocation_store %q", ErrInvalidConfig, c.RevocationStore)
	case c.RevocationStore == StoreRedis && c.RedisURL == "":
		return fmt.Errorf("%w: redis_url is required for the redis revocation store", ErrInvalidConfig)
	case c.RevocationMaxSize <= 0:
		return fmt.Errorf("%w: revocation_max_size must be positive", ErrInvalidConfig)
	case c.TrendDays <= 0 || c.TrendWindow <= 0 || c.TrendHorizon <= 0:
		return fmt.Errorf("%w: trend_days, trend_window and trend_horizon must be positive", ErrInvalidConfig)
	}
	return nil
}
