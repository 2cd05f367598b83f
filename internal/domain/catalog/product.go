package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound indicates the product does not exist
var ErrProductNotFound = errors.New("catalog: product not found")

// Product is the central authority for a sellable item. StockQuantity is
// seller-declared truth: the sync engine compares it against marketplace
// observations but never overwrites it, since marketplaces are not trusted
// as a source of inventory truth. Stock mutations happen through an explicit
// user-visible adjustment path outside the sync engine.
type Product struct {
	// ID is the unique identifier of this product
	ID uuid.UUID
	// SellerID is the seller that owns this product
	SellerID uuid.UUID
	// SKU is the seller's internal product code
	SKU string
	// Name is the product name
	Name string
	// Price is the base selling price
	Price decimal.Decimal
	// StockQuantity is the authoritative available quantity
	StockQuantity decimal.Decimal
	// CreatedAt is when this product was created
	CreatedAt time.Time
	// UpdatedAt is when this product was last updated
	UpdatedAt time.Time
}

// StockReader gives the sync engine read-only access to central stock
type StockReader interface {
	// FindByID returns a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// StockQuantity returns the authoritative stock for a product
	StockQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
