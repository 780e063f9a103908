// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, body limits); AppConfig is everything specific to this service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: pulsemesh-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Signaling relay configuration
	WSReadBufferSize  int // WebSocket read buffer size in bytes
	WSWriteBufferSize int // WebSocket write buffer size in bytes
	WSSendQueueSize   int // Per-connection outbound event queue length

	// Notification fan-out
	NotifyConcurrency int // Max concurrent notification writes per batch

	// Abuse protection
	CreateRateLimit int // Max call/session creations per user per minute

	// Handler operation timeouts, in seconds. Zero keeps the built-in default.
	TimeoutPingSecs   int // Health checks and connectivity verification
	TimeoutShortSecs  int // Single-document reads
	TimeoutMediumSecs int // List queries and compare-then-write updates
	TimeoutLongSecs   int // Multi-collection operations and fan-out
}
