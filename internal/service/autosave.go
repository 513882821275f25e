package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pagebuilder/internal/observability"
)

// DefaultAutosaveSchedule saves every thirty seconds when there are changes.
const DefaultAutosaveSchedule = "@every 30s"

const autosaveJob = "autosave"

// Autosaver saves a SiteService on a cron schedule whenever it is dirty.
// A tick that arrives while the previous save is still running is skipped.
type Autosaver struct {
	svc      *SiteService
	schedule string
	logger   *zap.Logger
	guard    runningGuard

	ctx    context.Context
	cancel context.CancelFunc
	cron   *cron.Cron
}

func NewAutosaver(svc *SiteService, schedule string, logger *zap.Logger) *Autosaver {
	if schedule == "" {
		schedule = DefaultAutosaveSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{svc: svc, schedule: schedule, logger: logger}
}

// Start validates the schedule and begins ticking.
func (a *Autosaver) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	c := cron.New(cron.WithLogger(cron.PrintfLogger(observability.NewPrintfAdapter(a.logger))))
	if _, err := c.AddFunc(a.schedule, func() { a.RunOnce(a.ctx) }); err != nil {
		a.cancel()
		return fmt.Errorf("autosave: invalid schedule %q: %w", a.schedule, err)
	}
	c.Start()
	a.cron = c
	a.logger.Info("autosave scheduled", zap.String("schedule", a.schedule))
	return nil
}

// RunOnce performs one autosave pass. It reports whether a save ran.
func (a *Autosaver) RunOnce(ctx context.Context) bool {
	if !a.guard.TryLock(autosaveJob) {
		a.logger.Debug("autosave still running, skipping tick")
		return false
	}
	defer a.guard.Unlock(autosaveJob)

	res, attempted := a.svc.SaveIfDirty(ctx)
	if !attempted {
		return false
	}
	if !res.Success {
		a.logger.Warn("autosave failed", zap.String("error", res.Error))
	}
	return true
}

// Stop halts the schedule, waits for an in-flight save, then makes a final
// save of any remaining changes.
func (a *Autosaver) Stop(ctx context.Context) {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.guard.WaitAll(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	if res, attempted := a.svc.SaveIfDirty(ctx); attempted && !res.Success {
		a.logger.Warn("final save failed", zap.String("error", res.Error))
	}
}
