package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// SweepTriggerConfig
// ---------------------------------------------------------------------------

// SweepTriggerConfig holds configuration for the interval sweep trigger
type SweepTriggerConfig struct {
	// CheckInterval is how often to look for sellers due for a sweep
	CheckInterval time.Duration
	// SyncInterval is how often each seller should be swept
	SyncInterval time.Duration
}

// DefaultSweepTriggerConfig returns default configuration
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		CheckInterval: time.Minute,
		SyncInterval:  15 * time.Minute,
	}
}

// ---------------------------------------------------------------------------
// SweepTrigger
// ---------------------------------------------------------------------------

// SweepTrigger periodically enumerates sellers with active marketplace
// credentials and queues a sweep for each one that is due
type SweepTrigger struct {
	config      SweepTriggerConfig
	scheduler   *SweepScheduler
	credentials channel.CredentialRepository
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last scheduled time per seller to avoid duplicate scheduling
	lastScheduledMu sync.Mutex
	lastScheduled   map[uuid.UUID]time.Time
}

// NewSweepTrigger creates a new sweep trigger
func NewSweepTrigger(
	config SweepTriggerConfig,
	scheduler *SweepScheduler,
	credentials channel.CredentialRepository,
	logger *zap.Logger,
) *SweepTrigger {
	return &SweepTrigger{
		config:        config,
		scheduler:     scheduler,
		credentials:   credentials,
		logger:        logger,
		lastScheduled: make(map[uuid.UUID]time.Time),
	}
}

// Start starts the trigger loop
func (c *SweepTrigger) Start(ctx context.Context) error {
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

	c.logger.Info("Sweep trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Duration("sync_interval", c.config.SyncInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (c *SweepTrigger) Stop(ctx context.Context) error {
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
		c.logger.Info("Sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks and schedules sweeps
func (c *SweepTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.checkAndSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndSchedule(ctx)
		}
	}
}

// checkAndSchedule queues a sweep for every seller that is due
func (c *SweepTrigger) checkAndSchedule(ctx context.Context) {
	sellers, err := c.credentials.ListSellersWithActive(ctx)
	if err != nil {
		c.logger.Error("Failed to list sellers with active credentials", zap.Error(err))
		return
	}

	now := time.Now()
	scheduled := 0
	for _, sellerID := range sellers {
		if !c.markDue(sellerID, now) {
			continue
		}

		if err := c.scheduler.ScheduleSweep(sellerID); err != nil {
			c.logger.Warn("Failed to schedule sweep",
				zap.String("seller_id", sellerID.String()),
				zap.Error(err),
			)
			// Allow the next check to retry this seller
			c.unmark(sellerID)
			continue
		}
		scheduled++
	}

	if scheduled > 0 {
		c.logger.Debug("Scheduled sweeps",
			zap.Int("scheduled", scheduled),
			zap.Int("sellers", len(sellers)),
		)
	}
}

// markDue records a scheduling attempt, returning false when the seller was
// swept within the sync interval
func (c *SweepTrigger) markDue(sellerID uuid.UUID, now time.Time) bool {
	c.lastScheduledMu.Lock()
	defer c.lastScheduledMu.Unlock()

	if last, exists := c.lastScheduled[sellerID]; exists && now.Sub(last) < c.config.SyncInterval {
		return false
	}
	c.lastScheduled[sellerID] = now
	return true
}

// unmark clears the last scheduled time for a seller
func (c *SweepTrigger) unmark(sellerID uuid.UUID) {
	c.lastScheduledMu.Lock()
	defer c.lastScheduledMu.Unlock()
	delete(c.lastScheduled, sellerID)
}
