package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/infrastructure/persistence/models"
)

// GormStockReader implements catalog.StockReader using GORM
type GormStockReader struct {
	db *gorm.DB
}

// NewGormStockReader creates a new GormStockReader
func NewGormStockReader(db *gorm.DB) *GormStockReader {
	return &GormStockReader{db: db}
}

// FindByID returns a product by its ID
func (r *GormStockReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// StockQuantity returns the authoritative stock for a product
func (r *GormStockReader) StockQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Select("stock_quantity").
		First(&model, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, catalog.ErrProductNotFound
		}
		return decimal.Zero, err
	}
	return model.StockQuantity, nil
}

// Ensure GormStockReader implements StockReader
var _ catalog.StockReader = (*GormStockReader)(nil)
