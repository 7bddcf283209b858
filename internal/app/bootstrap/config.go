// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for SocietyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: SOCIETYHUB_MONGO_URI, SOCIETYHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "society_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Identity provider settings
	{Name: "identity_jwt_secret", Default: "dev-only-identity-secret", Desc: "HS256 secret shared with the identity provider"},
	{Name: "identity_jwt_issuer", Default: "", Desc: "Expected token issuer (blank disables the issuer check)"},
	{Name: "identity_profile_url", Default: "", Desc: "Identity provider directory endpoint for profile enrichment"},
	{Name: "identity_api_token", Default: "", Desc: "Token authenticating this service to the directory endpoint"},

	// Rate limiting for sensitive admin actions
	{Name: "rate_limit_max", Default: 100, Desc: "Max actions per principal per window"},
	{Name: "rate_limit_window", Default: "60s", Desc: "Rate limit window (e.g., 60s, 1m)"},

	// Session registry sweep
	{Name: "session_timeout", Default: "24h", Desc: "Idle threshold before a session is closed"},
	{Name: "session_sweep_interval", Default: "1h", Desc: "How often the session sweep runs"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_membership", Default: "all", Desc: "Membership event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Role resolver cache
	{Name: "society_name_cache_size", Default: 256, Desc: "LRU size for society name lookups"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SOCIETYHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SOCIETYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		IdentityJWTSecret:  appValues.String("identity_jwt_secret"),
		IdentityJWTIssuer:  appValues.String("identity_jwt_issuer"),
		IdentityProfileURL: appValues.String("identity_profile_url"),
		IdentityAPIToken:   appValues.String("identity_api_token"),

		RateLimitMax:    appValues.Int("rate_limit_max"),
		RateLimitWindow: appValues.Duration("rate_limit_window", 60*time.Second),

		SessionTimeout:       appValues.Duration("session_timeout", 24*time.Hour),
		SessionSweepInterval: appValues.Duration("session_sweep_interval", time.Hour),

		AuditLogAuth:       appValues.String("audit_log_auth"),
		AuditLogMembership: appValues.String("audit_log_membership"),
		AuditLogAdmin:      appValues.String("audit_log_admin"),

		SocietyNameCacheSize: appValues.Int("society_name_cache_size"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// SocietyHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and refuses to start
// without an identity secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IdentityJWTSecret == "" {
		return fmt.Errorf("identity_jwt_secret must be set")
	}

	if coreCfg.Env == "prod" && appCfg.IdentityJWTSecret == "dev-only-identity-secret" {
		return fmt.Errorf("identity_jwt_secret still has its development default in prod")
	}

	return nil
}
