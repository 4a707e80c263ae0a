package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/events"
	"noteguard-be/pkg/metrics"
)

const (
	triggerScheduled = "scheduled"
	triggerManual    = "manual"
)

// SweepLock keeps scheduled sweeps on one replica at a time.
type SweepLock interface {
	TryLock(ctx context.Context) (release func(), acquired bool, err error)
}

type ICleanupService interface {
	// Sweep runs a cleanup now, ignoring the sweep lock.
	Sweep(ctx context.Context) (*dto.CleanupResult, error)
	ExpiringWithin(ctx context.Context, hours int) (*dto.ExpiringNotesResponse, error)
	Start(ctx context.Context) error
	Stop()
}

type cleanupService struct {
	uowFactory unitofwork.RepositoryFactory
	clock      clock.Clock
	lock       SweepLock
	publisher  IPublisherService
	metrics    *metrics.Collector
	logger     logger.ILogger
	interval   time.Duration

	mu          sync.Mutex
	running     bool
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewCleanupService builds the sweeper. lock may be nil for single-replica
// deployments.
func NewCleanupService(
	uowFactory unitofwork.RepositoryFactory,
	clk clock.Clock,
	lock SweepLock,
	publisher IPublisherService,
	collector *metrics.Collector,
	log logger.ILogger,
	interval time.Duration,
) ICleanupService {
	return &cleanupService{
		uowFactory: uowFactory,
		clock:      clk,
		lock:       lock,
		publisher:  publisher,
		metrics:    collector,
		logger:     log,
		interval:   interval,
	}
}

func (s *cleanupService) Sweep(ctx context.Context) (*dto.CleanupResult, error) {
	return s.run(ctx, triggerManual)
}

// run invalidates expired shares, then purges expired notes. The two steps
// are independent; a failure in one does not skip the other.
func (s *cleanupService) run(ctx context.Context, trigger string) (res *dto.CleanupResult, err error) {
	started := time.Now()
	now := s.clock.Now()
	res = &dto.CleanupResult{RanAt: now}

	defer func() {
		if r := recover(); r != nil {
			err = apperror.Internal("cleanup failed", fmt.Errorf("panic: %v", r))
		}
		s.metrics.ObserveSweep(trigger, err, res.NotesPurged, res.SharesInvalidated, time.Since(started))
		if err != nil {
			s.logger.Error("CleanupService", "Cleanup failed", map[string]interface{}{
				"trigger": trigger,
				"error":   err.Error(),
			})
		}
	}()

	repo := s.uowFactory.NewUnitOfWork(ctx).NoteRepository()

	var errs []error
	invalidated, shareErr := repo.InvalidateExpiredShares(ctx, now)
	if shareErr != nil {
		errs = append(errs, fmt.Errorf("invalidating expired shares: %w", shareErr))
	} else {
		res.SharesInvalidated = invalidated
	}

	purged, purgeErr := repo.DeleteExpired(ctx, now)
	if purgeErr != nil {
		errs = append(errs, fmt.Errorf("deleting expired notes: %w", purgeErr))
	} else {
		res.NotesPurged = purged
	}

	if res.SharesInvalidated > 0 || res.NotesPurged > 0 {
		publishEvent(ctx, s.publisher, s.logger, "CleanupService", events.NotesPurged, now, map[string]interface{}{
			"notes_purged":       res.NotesPurged,
			"shares_invalidated": res.SharesInvalidated,
			"trigger":            trigger,
		})
	}

	if len(errs) > 0 {
		return res, apperror.Internal("cleanup failed", errors.Join(errs...))
	}

	s.logger.Info("CleanupService", "Cleanup completed", map[string]interface{}{
		"trigger":            trigger,
		"notes_purged":       res.NotesPurged,
		"shares_invalidated": res.SharesInvalidated,
	})
	return res, nil
}

// ExpiringWithin counts notes with now < expiration_time <= now+hours, plus
// the ones already expired and waiting for the next sweep.
func (s *cleanupService) ExpiringWithin(ctx context.Context, hours int) (*dto.ExpiringNotesResponse, error) {
	window, ok := clock.Hours(hours)
	if !ok {
		return nil, apperror.Validation("hours is out of range")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).NoteRepository()
	now := s.clock.Now()

	expiring, err := repo.CountExpiringBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, apperror.Internal("failed to count expiring notes", err)
	}
	expired, err := repo.CountExpired(ctx, now)
	if err != nil {
		return nil, apperror.Internal("failed to count expired notes", err)
	}

	return &dto.ExpiringNotesResponse{
		Hours:          hours,
		ExpiringWithin: expiring,
		AlreadyExpired: expired,
	}, nil
}

// Start launches the scheduler goroutine. The first run happens at the next
// multiple of the interval (top of the hour for the default), then every
// interval after that.
func (s *cleanupService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("cleanup scheduler already running")
	}
	if s.interval <= 0 {
		return errors.New("cleanup interval must be positive")
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.stoppedChan = make(chan struct{})

	s.logger.Info("CleanupService", "Starting cleanup scheduler", map[string]interface{}{
		"interval": s.interval.String(),
	})
	go s.loop(ctx, s.stopChan, s.stoppedChan)
	return nil
}

// Stop signals the loop and waits for an in-flight sweep to finish.
func (s *cleanupService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, stopped := s.stopChan, s.stoppedChan
	s.mu.Unlock()

	close(stop)
	<-stopped
	s.logger.Info("CleanupService", "Cleanup scheduler stopped", nil)
}

func (s *cleanupService) loop(ctx context.Context, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	timer := time.NewTimer(s.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-timer.C:
			s.runScheduled(ctx)
			timer.Reset(s.untilNextRun())
		}
	}
}

func (s *cleanupService) untilNextRun() time.Duration {
	now := s.clock.Now()
	return now.Truncate(s.interval).Add(s.interval).Sub(now)
}

func (s *cleanupService) runScheduled(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CleanupService", "Scheduled cleanup panicked", map[string]interface{}{
				"error": fmt.Sprint(r),
			})
		}
	}()

	if s.lock != nil {
		release, acquired, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Warn("CleanupService", "Skipping scheduled cleanup, lock unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			s.metrics.SweepRuns.WithLabelValues(triggerScheduled, "skipped").Inc()
			return
		}
		if !acquired {
			s.logger.Debug("CleanupService", "Scheduled cleanup running on another instance", nil)
			s.metrics.SweepRuns.WithLabelValues(triggerScheduled, "skipped").Inc()
			return
		}
		defer release()
	}

	// Errors are logged and counted inside run; the loop keeps going.
	_, _ = s.run(ctx, triggerScheduled)
}
