package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/infrastructure/persistence/models"
)

// GormCredentialRepository implements CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByID finds a credential by its ID
func (r *GormCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveBySeller returns all non-revoked credentials for a seller,
// optionally filtered to one platform
func (r *GormCredentialRepository) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID, platform *channel.PlatformCode) ([]channel.Credential, error) {
	query := r.db.WithContext(ctx).
		Where("seller_id = ? AND revoked = ?", sellerID, false)

	if platform != nil && platform.IsValid() {
		query = query.Where("platform_code = ?", *platform)
	}

	var credentialModels []models.CredentialModel
	if err := query.Order("platform_code ASC, external_account_id ASC").Find(&credentialModels).Error; err != nil {
		return nil, err
	}

	credentials := make([]channel.Credential, len(credentialModels))
	for i, model := range credentialModels {
		credentials[i] = *model.ToDomain()
	}
	return credentials, nil
}

// ListSellersWithActive returns the distinct sellers holding at least one
// non-revoked credential
func (r *GormCredentialRepository) ListSellersWithActive(ctx context.Context) ([]uuid.UUID, error) {
	var sellerIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CredentialModel{}).
		Where("revoked = ?", false).
		Distinct("seller_id").
		Pluck("seller_id", &sellerIDs).Error; err != nil {
		return nil, err
	}
	return sellerIDs, nil
}

// Save creates or updates a credential
func (r *GormCredentialRepository) Save(ctx context.Context, credential *channel.Credential) error {
	model := models.CredentialModelFromDomain(credential)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormCredentialRepository implements CredentialRepository
var _ channel.CredentialRepository = (*GormCredentialRepository)(nil)
