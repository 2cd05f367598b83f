package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
	"github.com/stockbridge/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.ProductListing, error) {
	var model models.ProductListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrListingRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCredential returns all listings tracked under a credential
func (r *GormListingRepository) FindByCredential(ctx context.Context, credentialID uuid.UUID) ([]channel.ProductListing, error) {
	var listingModels []models.ProductListingModel
	if err := r.db.WithContext(ctx).
		Where("credential_id = ?", credentialID).
		Order("created_at ASC").
		Find(&listingModels).Error; err != nil {
		return nil, err
	}

	listings := make([]channel.ProductListing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings, nil
}

// FindAll lists a seller's listings matching the filter
func (r *GormListingRepository) FindAll(ctx context.Context, sellerID uuid.UUID, filter channel.ListingFilter) ([]channel.ProductListing, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.PlatformCode != nil && filter.PlatformCode.IsValid() {
		query = query.Where("platform_code = ?", *filter.PlatformCode)
	}
	if filter.SyncStatus != nil && filter.SyncStatus.IsValid() {
		query = query.Where("sync_status = ?", *filter.SyncStatus)
	}

	var listingModels []models.ProductListingModel
	if err := query.Order("created_at DESC").Find(&listingModels).Error; err != nil {
		return nil, err
	}

	listings := make([]channel.ProductListing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings, nil
}

// Save creates or updates a listing. Updates carry the version the caller
// loaded; if another writer committed in between, no row matches and the
// caller gets shared.ErrConcurrencyConflict instead of silently overwriting
// the other writer's transition.
func (r *GormListingRepository) Save(ctx context.Context, listing *channel.ProductListing) error {
	model := models.ProductListingModelFromDomain(listing)

	if listing.Version == 0 {
		model.Version = 1
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return err
		}
		listing.Version = 1
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductListingModel{}).
		Where("id = ? AND version = ?", listing.ID, listing.Version).
		Updates(map[string]any{
			"platform_product_id": model.PlatformProductID,
			"sync_status":         model.SyncStatus,
			"sync_error":          model.SyncError,
			"remote_stock":        model.RemoteStock,
			"last_checked_at":     model.LastCheckedAt,
			"version":             listing.Version + 1,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	listing.Version++
	return nil
}

// Ensure GormListingRepository implements ListingRepository
var _ channel.ListingRepository = (*GormListingRepository)(nil)
