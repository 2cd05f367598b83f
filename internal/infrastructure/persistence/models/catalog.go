package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockbridge/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
// stock_quantity is the authoritative inventory figure; the sync engine only
// ever reads it.
type ProductModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	SellerID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_seller_sku,priority:1"`
	SKU           string          `gorm:"type:varchar(100);not null;index:idx_product_seller_sku,priority:2"`
	Name          string          `gorm:"type:varchar(255);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:            m.ID,
		SellerID:      m.SellerID,
		SKU:           m.SKU,
		Name:          m.Name,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
