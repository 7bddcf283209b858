// internal/app/system/workers/registrysweep.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/system/sessionreg"
)

// RegistrySweep is a background worker that closes idle admin sessions in
// the in-memory registry.
type RegistrySweep struct {
	registry *sessionreg.Registry
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRegistrySweep creates a sweep worker. interval is how often to run;
// the idle threshold lives on the registry itself.
func NewRegistrySweep(registry *sessionreg.Registry, logger *zap.Logger, interval time.Duration) *RegistrySweep {
	return &RegistrySweep{
		registry: registry,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *RegistrySweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *RegistrySweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("session sweep worker stopped")
}

func (w *RegistrySweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if closed := w.registry.Sweep(); closed > 0 {
				w.log.Info("closed idle sessions", zap.Int("count", closed))
			}
		}
	}
}
