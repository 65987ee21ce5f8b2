package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
)

const shutdownTimeout = 30 * time.Second

// Run requires the configured modules and waits for them. With Hold set it
// keeps them initialized until ctx is cancelled. The modules are then
// released and the kernel is closed. Run returns the ticket's error if any
// module failed; an interrupt is not an error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	logger := a.logger
	logger.Debug("App.Run method started.")

	if a.socket != nil {
		if err := a.socket.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect module loader: %w", err)
		}
		defer a.socket.Close()
	}

	// Teardown must outlive an interrupt.
	base := context.WithoutCancel(ctx)
	a.kernel.Start(base)
	defer func() {
		closeCtx, cancel := context.WithTimeout(base, shutdownTimeout)
		defer cancel()
		if err := a.kernel.Close(closeCtx); err != nil {
			logger.Error("Kernel shutdown failed.", "error", err)
		}
	}()

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	logger.Info("🚀 Requiring modules...", "count", len(a.modules))
	ticket, err := a.kernel.Require(ctx, a.modules, a.callbacks())
	if err != nil {
		return fmt.Errorf("failed to require modules: %w", err)
	}

	runErr := ticket.Wait(ctx)
	if ctx.Err() != nil && errors.Is(runErr, ctx.Err()) {
		logger.Warn("Interrupted before all modules were ready.")
		runErr = nil
	}
	a.logStats(base, "Modules settled.")

	if runErr == nil && a.config.Hold && ctx.Err() == nil {
		logger.Info("Holding modules until interrupted.")
		<-ctx.Done()
	}

	releaseCtx, cancel := context.WithTimeout(base, shutdownTimeout)
	defer cancel()
	if err := a.kernel.Release(releaseCtx, ticket); err != nil {
		return fmt.Errorf("failed to release modules: %w", err)
	}
	if err := a.kernel.Settle(releaseCtx); err != nil {
		return fmt.Errorf("failed to settle modules: %w", err)
	}
	a.logStats(releaseCtx, "🏁 Modules released.")

	logger.Debug("App.Run method finished.")
	return runErr
}

func (a *App) logStats(ctx context.Context, msg string) {
	s, err := a.kernel.Stats(ctx)
	if err != nil {
		a.logger.Warn("Could not read kernel stats.", "error", err)
		return
	}
	a.logger.Info(msg, "total", s.Total, "ready", s.Ready, "pending", s.Pending, "by_state", s.ByState)
}
