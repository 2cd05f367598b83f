package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appsync "github.com/stockbridge/backend/internal/application/sync"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

// SweepRunner runs one sweep for a seller. Implemented by the sync
// orchestrator.
type SweepRunner interface {
	RunSync(ctx context.Context, cmd appsync.RunSyncCommand) (*channel.SyncRun, error)
}

// OrchestratorExecutor executes sweep jobs through the sync orchestrator.
// A seller lock held elsewhere marks the job skipped rather than failed so a
// busy seller does not pollute failure metrics.
type OrchestratorExecutor struct {
	runner SweepRunner
	logger *zap.Logger
}

// NewOrchestratorExecutor creates a new executor
func NewOrchestratorExecutor(runner SweepRunner, logger *zap.Logger) *OrchestratorExecutor {
	return &OrchestratorExecutor{
		runner: runner,
		logger: logger,
	}
}

// Execute runs the sweep for the job's seller
func (e *OrchestratorExecutor) Execute(ctx context.Context, job *SweepJob) error {
	run, err := e.runner.RunSync(ctx, appsync.RunSyncCommand{
		SellerID: job.SellerID,
		Trigger:  channel.RunTriggerScheduled,
	})
	if err != nil {
		if errors.Is(err, shared.ErrSyncInProgress) {
			job.Skip(err.Error())
			e.logger.Debug("Sweep skipped, seller already locked",
				zap.String("seller_id", job.SellerID.String()),
			)
			return nil
		}
		return err
	}

	e.logger.Info("Scheduled sweep finished",
		zap.String("seller_id", job.SellerID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("orders_synced", run.Report.Synced),
		zap.Int("orders_new", run.Report.New),
		zap.Int("failed", run.Report.Failed),
	)
	return nil
}

// Ensure OrchestratorExecutor implements SweepExecutor
var _ SweepExecutor = (*OrchestratorExecutor)(nil)
