// Package scheduler runs periodic background jobs for the CHV service.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultJobTimeout = 2 * time.Minute

// Saver persists the repository. *core.Service implements it.
type Saver interface {
	SaveSnapshot(ctx context.Context) error
}

// Autosave writes a snapshot on a cron schedule so an unexpected shutdown
// loses at most one interval of records.
type Autosave struct {
	cron    *cron.Cron
	saver   Saver
	logger  *zap.Logger
	timeout time.Duration
	entry   cron.EntryID
	runs    atomic.Int64
}

// NewAutosave registers the save job. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 5m".
func NewAutosave(saver Saver, schedule string, logger *zap.Logger) (*Autosave, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Autosave{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		saver:   saver,
		logger:  logger.Named("autosave"),
		timeout: defaultJobTimeout,
	}
	id, err := a.cron.AddFunc(schedule, a.run)
	if err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}
	a.entry = id
	return a, nil
}

// Start begins the schedule.
func (a *Autosave) Start() {
	a.cron.Start()
	a.logger.Info("autosave scheduler started", zap.Time("next_run", a.Next()))
}

// Stop halts the schedule and waits for a running save to finish.
func (a *Autosave) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
	a.logger.Info("autosave scheduler stopped", zap.Int64("runs", a.runs.Load()))
}

// Next returns the next scheduled run, zero before Start.
func (a *Autosave) Next() time.Time {
	return a.cron.Entry(a.entry).Next
}

// Runs returns the number of completed save attempts.
func (a *Autosave) Runs() int64 { return a.runs.Load() }

func (a *Autosave) run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	defer a.runs.Add(1)
	if err := a.saver.SaveSnapshot(ctx); err != nil {
		a.logger.Error("autosave failed", zap.Error(err))
		return
	}
	a.logger.Debug("autosave completed")
}
