// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for PulseMesh.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PULSEMESH_MONGO_URI, PULSEMESH_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pulsemesh", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "pulsemesh-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Signaling relay
	{Name: "ws_read_buffer_size", Default: 1024, Desc: "WebSocket read buffer size in bytes"},
	{Name: "ws_write_buffer_size", Default: 1024, Desc: "WebSocket write buffer size in bytes"},
	{Name: "ws_send_queue_size", Default: 64, Desc: "Per-connection outbound event queue length"},

	// Notification fan-out
	{Name: "notify_concurrency", Default: 8, Desc: "Max concurrent notification writes per batch"},

	// Abuse protection
	{Name: "create_rate_limit", Default: 30, Desc: "Max call/session creations per user per minute"},

	// Handler operation timeouts (zero keeps the built-in default)
	{Name: "timeout_ping_secs", Default: 0, Desc: "Health check timeout in seconds"},
	{Name: "timeout_short_secs", Default: 0, Desc: "Single-document read timeout in seconds"},
	{Name: "timeout_medium_secs", Default: 0, Desc: "List/update operation timeout in seconds"},
	{Name: "timeout_long_secs", Default: 0, Desc: "Fan-out operation timeout in seconds"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PULSEMESH_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PULSEMESH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		WSReadBufferSize:  appValues.Int("ws_read_buffer_size"),
		WSWriteBufferSize: appValues.Int("ws_write_buffer_size"),
		WSSendQueueSize:   appValues.Int("ws_send_queue_size"),

		NotifyConcurrency: appValues.Int("notify_concurrency"),

		CreateRateLimit: appValues.Int("create_rate_limit"),

		TimeoutPingSecs:   appValues.Int("timeout_ping_secs"),
		TimeoutShortSecs:  appValues.Int("timeout_short_secs"),
		TimeoutMediumSecs: appValues.Int("timeout_medium_secs"),
		TimeoutLongSecs:   appValues.Int("timeout_long_secs"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// PulseMesh validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and sanity-checks the relay tuning
// values.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.WSReadBufferSize <= 0 || appCfg.WSWriteBufferSize <= 0 {
		return fmt.Errorf("websocket buffer sizes must be positive")
	}
	if appCfg.WSSendQueueSize <= 0 {
		return fmt.Errorf("ws_send_queue_size must be positive")
	}
	if appCfg.NotifyConcurrency <= 0 {
		return fmt.Errorf("notify_concurrency must be positive")
	}
	if appCfg.CreateRateLimit <= 0 {
		return fmt.Errorf("create_rate_limit must be positive")
	}
	if appCfg.TimeoutPingSecs < 0 || appCfg.TimeoutShortSecs < 0 ||
		appCfg.TimeoutMediumSecs < 0 || appCfg.TimeoutLongSecs < 0 {
		return fmt.Errorf("timeout values must not be negative")
	}

	return nil
}
