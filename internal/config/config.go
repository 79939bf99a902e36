// Package config loads and validates process configuration from the
// environment (optionally overlaid with a config file) via viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SOBERLINE"

const (
	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultDatabasePath    = "soberline.db"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// Auth endpoints are limited aggressively to slow credential brute
	// forcing; the rest of the API generously.
	DefaultAuthRateWindow = 15 * time.Minute
	DefaultAuthRateMax    = 5
	DefaultAPIRateWindow  = 15 * time.Minute
	DefaultAPIRateMax     = 100

	DefaultBcryptCost      = 12
	DefaultMeetingGuideURL = "https://meetingguide.org/api/geo/v1/meetings"
	DefaultMaxRequestBytes = 10 << 20 // matches the 10mb JSON body limit clients expect

	DefaultSignalingMsgMax  = 64 * 1024
	DefaultSignalingMsgRate = 50
	DefaultWSPingInterval   = 30 * time.Second
	DefaultWSPongWait       = 60 * time.Second
	DefaultWSSendQueueSize  = 256
)

var ErrMissingJWTSecret = errors.New("jwt secret is required (set SOBERLINE_JWT_SECRET)")

type Config struct {
	ListenAddr   string
	DatabasePath string

	LogLevel  string
	LogFormat string // "console" or "json"

	// AllowedOrigins is the browser origin allowlist applied to both CORS
	// preflights and WebSocket upgrades. Empty means same-host only.
	AllowedOrigins []string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	AuthRateWindow time.Duration
	AuthRateMax    int
	APIRateWindow  time.Duration
	APIRateMax     int

	MaxRequestBytes int64

	// Signaling relay knobs.
	MaxSignalingMessageBytes   int64
	SignalingMessagesPerSecond int64
	WSPingInterval             time.Duration
	WSPongWait                 time.Duration
	WSSendQueueSize            int

	MeetingGuideURL string

	ShutdownTimeout time.Duration
}

// Load reads configuration from SOBERLINE_* environment variables. If
// SOBERLINE_CONFIG names a file, it is read first and the environment
// overrides it.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		ListenAddr:   v.GetString("listen_addr"),
		DatabasePath: v.GetString("database_path"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),

		AllowedOrigins: splitOrigins(v.GetString("allowed_origins")),

		JWTSecret:       v.GetString("jwt_secret"),
		AccessTokenTTL:  v.GetDuration("access_token_ttl"),
		RefreshTokenTTL: v.GetDuration("refresh_token_ttl"),
		BcryptCost:      v.GetInt("bcrypt_cost"),

		AuthRateWindow: v.GetDuration("auth_rate_window"),
		AuthRateMax:    v.GetInt("auth_rate_max"),
		APIRateWindow:  v.GetDuration("api_rate_window"),
		APIRateMax:     v.GetInt("api_rate_max"),

		MaxRequestBytes: v.GetInt64("max_request_bytes"),

		MaxSignalingMessageBytes:   v.GetInt64("max_signaling_message_bytes"),
		SignalingMessagesPerSecond: v.GetInt64("signaling_messages_per_second"),
		WSPingInterval:             v.GetDuration("ws_ping_interval"),
		WSPongWait:                 v.GetDuration("ws_pong_wait"),
		WSSendQueueSize:            v.GetInt("ws_send_queue_size"),

		MeetingGuideURL: v.GetString("meeting_guide_url"),

		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("access_token_ttl", DefaultAccessTokenTTL)
	v.SetDefault("refresh_token_ttl", DefaultRefreshTokenTTL)
	v.SetDefault("bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_rate_window", DefaultAuthRateWindow)
	v.SetDefault("auth_rate_max", DefaultAuthRateMax)
	v.SetDefault("api_rate_window", DefaultAPIRateWindow)
	v.SetDefault("api_rate_max", DefaultAPIRateMax)
	v.SetDefault("max_request_bytes", DefaultMaxRequestBytes)
	v.SetDefault("max_signaling_message_bytes", DefaultSignalingMsgMax)
	v.SetDefault("signaling_messages_per_second", DefaultSignalingMsgRate)
	v.SetDefault("ws_ping_interval", DefaultWSPingInterval)
	v.SetDefault("ws_pong_wait", DefaultWSPongWait)
	v.SetDefault("ws_send_queue_size", DefaultWSSendQueueSize)
	v.SetDefault("meeting_guide_url", DefaultMeetingGuideURL)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.ListenAddr == "" {
		return errors.New("listen addr must not be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("database path must not be empty")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return errors.New("refresh token TTL must exceed access token TTL")
	}
	if c.WSPingInterval > 0 && c.WSPongWait <= c.WSPingInterval {
		return errors.New("ws pong wait must exceed ws ping interval")
	}
	if c.MaxSignalingMessageBytes <= 0 {
		return errors.New("max signaling message bytes must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	return nil
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, strings.TrimSuffix(strings.ToLower(p), "/"))
		}
	}
	return origins
}
