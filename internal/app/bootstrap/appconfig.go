// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level, and CORS. Everything specific to SocietyHub lives
// here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Identity provider configuration. Identity is delegated: tokens are
	// minted elsewhere and only verified here.
	IdentityJWTSecret  string
	IdentityJWTIssuer  string
	IdentityProfileURL string // directory endpoint for profile enrichment
	IdentityAPIToken   string // authenticates this service to the directory

	// Rate limiting for sensitive admin actions
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Session registry sweep
	SessionTimeout       time.Duration // idle threshold before a sweep closes a session
	SessionSweepInterval time.Duration

	// Audit logging modes per category: "all", "db", "log", or "off"
	AuditLogAuth       string
	AuditLogMembership string
	AuditLogAdmin      string

	// Society name cache size for the role resolver
	SocietyNameCacheSize int
}
