package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/infrastructure/persistence/models"
)

// GormChannelOrderRepository implements OrderRepository using GORM
type GormChannelOrderRepository struct {
	db *gorm.DB
}

// NewGormChannelOrderRepository creates a new GormChannelOrderRepository
func NewGormChannelOrderRepository(db *gorm.DB) *GormChannelOrderRepository {
	return &GormChannelOrderRepository{db: db}
}

// Upsert creates or updates an order keyed by (platform_code,
// external_order_id). Re-imports refresh the sync-owned columns and leave the
// locally-owned ones (id, created_at, seller_note) untouched, so seller
// annotations survive every sweep.
func (r *GormChannelOrderRepository) Upsert(ctx context.Context, order *channel.CanonicalOrder) (bool, error) {
	if err := order.Validate(); err != nil {
		return false, err
	}

	var existing models.ChannelOrderModel
	err := r.db.WithContext(ctx).
		Where("platform_code = ? AND external_order_id = ?", order.PlatformCode, order.ExternalOrderID).
		First(&existing).Error

	if err == nil {
		model := models.ChannelOrderModelFromDomain(order)
		updates := map[string]any{
			"status":      model.Status,
			"raw_status":  model.RawStatus,
			"buyer_name":  model.BuyerName,
			"buyer_email": model.BuyerEmail,
			"total":       model.Total,
			"currency":    model.Currency,
			"items":       model.ItemsJSON,
			"placed_at":   model.PlacedAt,
			"raw_payload": model.RawPayload,
			"updated_at":  gorm.Expr("NOW()"),
		}
		if updateErr := r.db.WithContext(ctx).
			Model(&models.ChannelOrderModel{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; updateErr != nil {
			return false, updateErr
		}
		// Reflect the stored identity back so callers see the surviving row
		order.ID = existing.ID
		order.CreatedAt = existing.CreatedAt
		order.SellerNote = existing.SellerNote
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	// Concurrent sweeps can race on first import; ON CONFLICT keeps the
	// insert idempotent. RETURNING exposes the surviving row: the update
	// branch never touches id, so a returned id differing from the one we
	// generated means the conflict fired and an existing row was refreshed.
	model := models.ChannelOrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "platform_code"}, {Name: "external_order_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"status", "raw_status", "buyer_name", "buyer_email",
					"total", "currency", "items", "placed_at", "raw_payload", "updated_at",
				}),
			},
			clause.Returning{Columns: []clause.Column{
				{Name: "id"}, {Name: "created_at"}, {Name: "seller_note"},
			}},
		).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}

	if model.ID != order.ID {
		order.ID = model.ID
		order.CreatedAt = model.CreatedAt
		order.SellerNote = model.SellerNote
		return false, nil
	}
	return true, nil
}

// FindByExternalID finds an order by its platform identity
func (r *GormChannelOrderRepository) FindByExternalID(ctx context.Context, sellerID uuid.UUID, platform channel.PlatformCode, externalOrderID string) (*channel.CanonicalOrder, error) {
	var model models.ChannelOrderModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND platform_code = ? AND external_order_id = ?", sellerID, platform, externalOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists orders for a seller matching the filter
func (r *GormChannelOrderRepository) FindAll(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) ([]channel.CanonicalOrder, error) {
	var orderModels []models.ChannelOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ChannelOrderModel{}).Where("seller_id = ?", sellerID), filter)

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]channel.CanonicalOrder, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// Count counts orders for a seller matching the filter
func (r *GormChannelOrderRepository) Count(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ChannelOrderModel{}).Where("seller_id = ?", sellerID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormChannelOrderRepository) applyFilter(query *gorm.DB, filter channel.OrderFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query.Order("placed_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormChannelOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter channel.OrderFilter) *gorm.DB {
	if filter.PlatformCode != nil && filter.PlatformCode.IsValid() {
		query = query.Where("platform_code = ?", *filter.PlatformCode)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PlacedAfter != nil {
		query = query.Where("placed_at >= ?", *filter.PlacedAfter)
	}
	return query
}

// Ensure GormChannelOrderRepository implements OrderRepository
var _ channel.OrderRepository = (*GormChannelOrderRepository)(nil)
