// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	adminauthfeature "github.com/habitathq/societyhub/internal/app/features/adminauth"
	auditeventsfeature "github.com/habitathq/societyhub/internal/app/features/auditevents"
	healthfeature "github.com/habitathq/societyhub/internal/app/features/health"
	joinrequestsfeature "github.com/habitathq/societyhub/internal/app/features/joinrequests"
	membersfeature "github.com/habitathq/societyhub/internal/app/features/members"
	societiesfeature "github.com/habitathq/societyhub/internal/app/features/societies"
	"github.com/habitathq/societyhub/internal/app/membership"
	"github.com/habitathq/societyhub/internal/app/store/audit"
	profilestore "github.com/habitathq/societyhub/internal/app/store/profiles"
	societystore "github.com/habitathq/societyhub/internal/app/store/societies"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/notify"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It wires the stores, the identity
// provider and resolver, the audit recorder, and the membership service,
// then mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	profiles := profilestore.New(db)
	societies := societystore.New(db)
	auditStore := audit.New(db)

	recorder := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Membership: appCfg.AuditLogMembership,
		Admin:      appCfg.AuditLogAdmin,
	})

	provider := identity.NewJWTProvider(
		appCfg.IdentityJWTSecret,
		appCfg.IdentityJWTIssuer,
		appCfg.IdentityProfileURL,
		appCfg.IdentityAPIToken,
		logger,
	)

	resolver, err := identity.NewResolver(profiles, societies, appCfg.SocietyNameCacheSize, logger)
	if err != nil {
		logger.Error("resolver init failed", zap.Error(err))
		return nil, err
	}

	authn := auth.NewAuthenticator(provider, resolver, registry, logger)

	notifier := notify.NewLogPublisher(logger)
	service := membership.New(societies, profiles, provider, recorder, notifier, logger)

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(deps.MongoClient, registry, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	adminAuthHandler := adminauthfeature.NewHandler(authn, recorder, logger)
	r.Mount("/admin", adminauthfeature.Routes(adminAuthHandler))

	joinRequestsHandler := joinrequestsfeature.NewHandler(service, logger)

	membersHandler := membersfeature.NewHandler(profiles, recorder, logger)

	societiesRouter := societiesfeature.Routes(societiesfeature.NewHandler(societies, recorder, logger), authn, recorder)
	societiesRouter.Mount("/{societyID}/join-requests", joinrequestsfeature.SocietyRoutes(joinRequestsHandler, authn, limiter, recorder))
	societiesRouter.Mount("/{societyID}/members", membersfeature.SocietyRoutes(membersHandler, authn, recorder))
	r.Mount("/societies", societiesRouter)

	r.Mount("/join-requests", joinrequestsfeature.Routes(joinRequestsHandler, authn, limiter, recorder))
	r.Mount("/members", membersfeature.Routes(membersHandler, authn, recorder))
	r.Mount("/me", joinrequestsfeature.StatusRoutes(joinRequestsHandler, authn))

	auditHandler := auditeventsfeature.NewHandler(auditStore, logger)
	r.Mount("/audit-events", auditeventsfeature.Routes(auditHandler, authn, recorder))

	return r, nil
}
