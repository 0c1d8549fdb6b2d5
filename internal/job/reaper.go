package job

import (
	"context"
	"errors"
	"flashgen/internal/db"
	"fmt"
	"github.com/robfig/cron/v3"
	"log/slog"
	"sync"
	"time"
)

// ErrReapInProgress is returned by Reap when another run holds the lock.
var ErrReapInProgress = errors.New("session reaper already running")

const reapTimeout = time.Minute

// SessionReaper periodically deletes sessions older than the session TTL.
type SessionReaper struct {
	storage     *db.Storage
	ttl         time.Duration
	interval    time.Duration
	logger      *slog.Logger
	cron        *cron.Cron
	runningLock chan struct{} // single-flight guard, buffer of 1
	initial     sync.WaitGroup
	now         func() time.Time
}

func NewSessionReaper(storage *db.Storage, ttl, interval time.Duration, logger *slog.Logger) *SessionReaper {
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionReaper{
		storage:     storage,
		ttl:         ttl,
		interval:    interval,
		logger:      logger,
		cron:        cron.New(),
		runningLock: make(chan struct{}, 1),
		now:         time.Now,
	}
}

// Start runs one sweep immediately and schedules the rest every interval.
func (r *SessionReaper) Start() error {
	if r.interval <= 0 {
		return fmt.Errorf("invalid reap interval %s", r.interval)
	}

	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), r.run); err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	r.initial.Add(1)
	go func() {
		defer r.initial.Done()
		r.run()
	}()
	r.cron.Start()

	r.logger.Info("session reaper started", slog.Duration("interval", r.interval), slog.Duration("ttl", r.ttl))
	return nil
}

// Stop waits for running sweeps, including the first one, to finish.
func (r *SessionReaper) Stop() {
	<-r.cron.Stop().Done()
	r.initial.Wait()
	r.logger.Info("session reaper stopped")
}

func (r *SessionReaper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()

	n, err := r.Reap(ctx)
	switch {
	case errors.Is(err, ErrReapInProgress):
		r.logger.Debug("session reaper already running, skipping")
	case err != nil:
		r.logger.Error("session reaper failed", slog.String("error", err.Error()))
	case n > 0:
		r.logger.Info("expired sessions deleted", slog.Int64("count", n))
	}
}

// Reap deletes every session created more than ttl ago.
func (r *SessionReaper) Reap(ctx context.Context) (int64, error) {
	select {
	case r.runningLock <- struct{}{}:
		defer func() { <-r.runningLock }()
	default:
		return 0, ErrReapInProgress
	}

	return r.storage.DeleteExpiredSessions(ctx, r.now().Add(-r.ttl))
}
