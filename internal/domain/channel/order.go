package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CanonicalOrder Entity
// ---------------------------------------------------------------------------

// CanonicalOrder is the platform-agnostic representation of a marketplace
// order. Identity is (PlatformCode, ExternalOrderID); re-importing the same
// remote order updates the existing row and never creates a duplicate.
// Orders are created and updated by the sync engine only, never interactively.
type CanonicalOrder struct {
	// ID is the unique identifier of this order locally
	ID uuid.UUID
	// SellerID is the seller this order belongs to
	SellerID uuid.UUID
	// CredentialID is the credential the order was imported through
	CredentialID uuid.UUID
	// PlatformCode identifies the source platform
	PlatformCode PlatformCode
	// ExternalOrderID is the order ID on the platform
	ExternalOrderID string
	// Status is the canonical order status
	Status OrderStatus
	// RawStatus preserves the platform-native status string for audit,
	// including values the status mapper did not recognize
	RawStatus string
	// BuyerName is the buyer's name; empty when the platform withholds PII
	BuyerName string
	// BuyerEmail is the buyer's contact; empty when withheld
	BuyerEmail string
	// Total is the order total in the seller's base currency
	Total decimal.Decimal
	// Currency is the payment currency
	Currency string
	// Items contains the order line items
	Items []OrderItem
	// PlacedAt is when the order was created on the platform
	PlacedAt time.Time
	// SellerNote is a locally-added annotation; preserved across re-imports
	SellerNote string
	// RawPayload is the original platform response fragment, kept for audit
	RawPayload string
	// CreatedAt is when this order was first imported
	CreatedAt time.Time
	// UpdatedAt is when this order was last touched by a sweep
	UpdatedAt time.Time
}

// OrderItem is a line item in a canonical order
type OrderItem struct {
	// ExternalItemID is the line item ID on the platform
	ExternalItemID string `json:"external_item_id"`
	// PlatformProductID is the listing this item was sold under
	PlatformProductID string `json:"platform_product_id"`
	// SKU is the seller SKU, when known
	SKU string `json:"sku"`
	// Name is the product title on the platform
	Name string `json:"name"`
	// Quantity is the ordered quantity
	Quantity decimal.Decimal `json:"quantity"`
	// UnitPrice is the unit price
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Validate checks the identity fields required for an upsert
func (o *CanonicalOrder) Validate() error {
	if o.SellerID == uuid.Nil {
		return ErrInvalidSellerID
	}
	if !o.PlatformCode.IsValid() {
		return ErrInvalidPlatformCode
	}
	if o.ExternalOrderID == "" {
		return ErrInvalidExternalID
	}
	return nil
}

// ---------------------------------------------------------------------------
// OrderRepository
// ---------------------------------------------------------------------------

// OrderFilter defines filter criteria for listing orders
type OrderFilter struct {
	// PlatformCode filters by platform (optional)
	PlatformCode *PlatformCode
	// Status filters by canonical status (optional)
	Status *OrderStatus
	// PlacedAfter filters orders placed at or after this time
	PlacedAfter *time.Time
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// OrderRepository persists canonical orders
type OrderRepository interface {
	// Upsert creates or updates an order keyed by (platform, external order
	// id). It returns true when a new row was created. Locally-added fields
	// (SellerNote, ID, CreatedAt) survive re-imports.
	Upsert(ctx context.Context, order *CanonicalOrder) (created bool, err error)

	// FindByExternalID finds an order by its platform identity
	FindByExternalID(ctx context.Context, sellerID uuid.UUID, platform PlatformCode, externalOrderID string) (*CanonicalOrder, error)

	// FindAll lists orders for a seller matching the filter
	FindAll(ctx context.Context, sellerID uuid.UUID, filter OrderFilter) ([]CanonicalOrder, error)

	// Count counts orders for a seller matching the filter
	Count(ctx context.Context, sellerID uuid.UUID, filter OrderFilter) (int64, error)
}
