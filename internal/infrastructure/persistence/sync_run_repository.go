package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/infrastructure/persistence/models"
)

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Save creates or updates a run record
func (r *GormSyncRunRepository) Save(ctx context.Context, run *channel.SyncRun) error {
	model := models.SyncRunModelFromDomain(run)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindRecentBySeller returns the most recent runs for a seller
func (r *GormSyncRunRepository) FindRecentBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]channel.SyncRun, error) {
	var runModels []models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]channel.SyncRun, len(runModels))
	for i, model := range runModels {
		runs[i] = *model.ToDomain()
	}
	return runs, nil
}

// Ensure GormSyncRunRepository implements SyncRunRepository
var _ channel.SyncRunRepository = (*GormSyncRunRepository)(nil)
