package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appledger "github.com/tindahan/backend/internal/application/ledger"
)

// InterestScheduler triggers the monthly interest accrual run.
// It fires once per month on the configured day and hour, in UTC so that
// the accrual month boundary matches the ledger's month arithmetic.
type InterestScheduler struct {
	service   *appledger.InterestService
	logger    *zap.Logger
	config    InterestSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	now       func() time.Time
}

// InterestSchedulerConfig holds configuration for the interest scheduler
type InterestSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// RunDay is the day of the month (1-28) when accrual runs
	RunDay int

	// RunHour is the hour (0-23, UTC) when accrual runs
	RunHour int

	// RunTimeout is the maximum time for a full accrual run
	RunTimeout time.Duration
}

// DefaultInterestSchedulerConfig returns default configuration
func DefaultInterestSchedulerConfig() InterestSchedulerConfig {
	return InterestSchedulerConfig{
		Enabled:    true,
		RunDay:     1,
		RunHour:    2,
		RunTimeout: 30 * time.Minute,
	}
}

// NewInterestScheduler creates a new monthly interest scheduler
func NewInterestScheduler(
	service *appledger.InterestService,
	logger *zap.Logger,
	config InterestSchedulerConfig,
) *InterestScheduler {
	return &InterestScheduler{
		service: service,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// Start starts the scheduler
func (s *InterestScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("interest scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("interest scheduler started",
		zap.Int("run_day", s.config.RunDay),
		zap.Int("run_hour", s.config.RunHour),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *InterestScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("interest scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("interest scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *InterestScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		nextRun := s.nextRunAfter(s.now().UTC())
		delay := nextRun.Sub(s.now().UTC())

		s.logger.Info("monthly interest run scheduled",
			zap.Time("next_run", nextRun),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			s.logger.Debug("interest scheduler loop stopping")
			return
		case <-time.After(delay):
			s.execute(ctx)
		}
	}
}

// nextRunAfter returns the first configured run instant strictly after now
func (s *InterestScheduler) nextRunAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), s.config.RunDay, s.config.RunHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month()+1, s.config.RunDay, s.config.RunHour, 0, 0, 0, time.UTC)
	}
	return next
}

func (s *InterestScheduler) execute(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	started := s.now()
	results, err := s.service.RunAll(runCtx, started.UTC())
	if err != nil {
		s.logger.Error("monthly interest run failed",
			zap.Duration("duration", s.now().Sub(started)),
			zap.Error(err),
		)
		return
	}

	var created, considered int
	for _, summary := range results {
		created += summary.Created
		considered += summary.TotalCustomersConsidered
	}
	s.logger.Info("monthly interest run completed",
		zap.Int("tenants", len(results)),
		zap.Int("customers_considered", considered),
		zap.Int("entries_created", created),
		zap.Duration("duration", s.now().Sub(started)),
	)
}
