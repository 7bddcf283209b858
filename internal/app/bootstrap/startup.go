// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/system/ratelimit"
	"github.com/habitathq/societyhub/internal/app/system/sessionreg"
	"github.com/habitathq/societyhub/internal/app/system/workers"
)

// Process-wide runtime state shared between Startup, BuildHandler, and
// Shutdown. The registry and limiter are in-memory by design.
var (
	registry    *sessionreg.Registry
	limiter     *ratelimit.Limiter
	sweeper     *workers.RegistrySweep
	limiterStop chan struct{}
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// creates the in-memory session registry and rate limiter and starts their
// background maintenance.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	registry = sessionreg.New(appCfg.SessionTimeout)
	limiter = ratelimit.New(appCfg.RateLimitMax, appCfg.RateLimitWindow)

	sweeper = workers.NewRegistrySweep(registry, logger, appCfg.SessionSweepInterval)
	sweeper.Start()

	limiterStop = make(chan struct{})
	limiter.StartCleanup(limiterStop)

	return nil
}
