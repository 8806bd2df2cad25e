package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// OverdueInterval is how often overdue invoices are flagged. Zero disables.
	OverdueInterval time.Duration

	// ReconcileEnabled turns on the nightly ledger replay at ReconcileHour:ReconcileMinute
	ReconcileEnabled bool
	ReconcileHour    int
	ReconcileMinute  int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		OverdueInterval:  time.Hour,
		ReconcileEnabled: true,
		ReconcileHour:    2,
		ReconcileMinute:  0,
		CheckInterval:    time.Minute,
	}
}

// ParseCronSchedule reads the minute and hour fields of a daily cron
// expression such as "30 3 * * *". Remaining fields are ignored.
func ParseCronSchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %q needs minute and hour fields", ErrInvalidSchedule, expr)
	}
	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// CronTrigger submits the periodic ledger jobs to a Scheduler
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastOverdue time.Time
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Duration("overdue_interval", c.config.OverdueInterval),
		zap.Bool("reconcile_enabled", c.config.ReconcileEnabled),
		zap.Int("reconcile_hour", c.config.ReconcileHour),
		zap.Int("reconcile_minute", c.config.ReconcileMinute),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick submits whichever jobs are due at the current time
func (c *CronTrigger) tick() {
	now := c.now()

	c.mu.Lock()
	overdueDue := c.config.OverdueInterval > 0 && (c.lastOverdue.IsZero() || now.Sub(c.lastOverdue) >= c.config.OverdueInterval)
	if overdueDue {
		c.lastOverdue = now
	}
	today := now.Format("2006-01-02")
	reconcileDue := c.config.ReconcileEnabled &&
		c.lastRunDate != today &&
		now.Hour() == c.config.ReconcileHour &&
		now.Minute() == c.config.ReconcileMinute
	if reconcileDue {
		c.lastRunDate = today
	}
	c.mu.Unlock()

	if overdueDue {
		c.submit(JobKindOverdueInvoices)
	}
	if reconcileDue {
		c.submit(JobKindStockReconcile)
	}
}

func (c *CronTrigger) submit(kind JobKind) {
	job, err := c.scheduler.Submit(kind)
	if err != nil {
		c.logger.Error("Failed to submit scheduled job", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	c.logger.Debug("Scheduled job submitted", zap.String("kind", string(kind)), zap.String("job_id", job.ID.String()))
}

// TriggerNow queues a job of kind outside its schedule
func (c *CronTrigger) TriggerNow(kind JobKind) (*Job, error) {
	switch kind {
	case JobKindOverdueInvoices, JobKindStockReconcile:
		return c.scheduler.Submit(kind)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobKind, kind)
	}
}
