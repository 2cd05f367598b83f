package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Raw provider payloads
// ---------------------------------------------------------------------------

// RawOrder is an order as returned by a platform adapter, before canonical
// mapping. Amounts are kept as strings so a malformed value degrades at the
// mapping stage instead of failing the fetch.
type RawOrder struct {
	// PlatformCode identifies the source platform
	PlatformCode PlatformCode
	// ExternalOrderID is the order ID on the platform
	ExternalOrderID string
	// Status is the platform-native status string, untranslated
	Status string
	// BuyerName is the buyer's name; empty when the platform withholds PII
	BuyerName string
	// BuyerEmail is the buyer's contact; empty when withheld
	BuyerEmail string
	// TotalAmount is the order total as reported by the platform
	TotalAmount string
	// Currency is the payment currency
	Currency string
	// Items contains the raw line items
	Items []RawOrderItem
	// PlacedAt is when the order was created on the platform
	PlacedAt time.Time
	// Raw is the original platform response fragment (JSON), kept for audit
	Raw string
}

// RawOrderItem is a line item as returned by a platform adapter
type RawOrderItem struct {
	// ExternalItemID is the line item ID on the platform
	ExternalItemID string
	// PlatformProductID is the listing this item was sold under
	PlatformProductID string
	// SKU is the seller SKU, when the platform echoes it back
	SKU string
	// Name is the product title on the platform
	Name string
	// Quantity is the ordered quantity
	Quantity string
	// UnitPrice is the unit price
	UnitPrice string
}

// RemoteListingState is the last observed state of a listing on a platform
type RemoteListingState struct {
	// PlatformProductID is the listing ID on the platform
	PlatformProductID string
	// Stock is the quantity the platform believes is available
	Stock decimal.Decimal
	// Price is the current listing price on the platform
	Price decimal.Decimal
	// Active indicates whether the listing is live (paused listings still exist)
	Active bool
	// CheckedAt is when this state was observed
	CheckedAt time.Time
}

// ListingDraft is the data needed to (re)create a listing on a platform
type ListingDraft struct {
	// ProductID is our internal product ID
	ProductID uuid.UUID
	// SKU is our internal SKU code
	SKU string
	// Title is the listing title
	Title string
	// Price is the listing price
	Price decimal.Decimal
	// Quantity is the initial available quantity
	Quantity decimal.Decimal
}

// ---------------------------------------------------------------------------
// MarketplaceProvider port
// ---------------------------------------------------------------------------

// MarketplaceProvider is the uniform contract every platform adapter
// implements. Heterogeneity between marketplace APIs is absorbed behind this
// interface; the orchestrator never sees platform-specific types.
//
// Error contract: adapters classify failures before returning them.
// Authentication failures wrap ErrAuthExpired, a confirmed missing listing
// wraps ErrListingNotFound, and network/5xx failures wrap
// ErrPlatformUnavailable. Raw transport errors must not escape the adapter.
type MarketplaceProvider interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	// FetchOrdersSince returns all orders with a remote timestamp >= since
	// (inclusive). Pagination is handled internally; duplicates across the
	// boundary are expected and tolerated by idempotent upsert.
	FetchOrdersSince(ctx context.Context, grant AccessGrant, since time.Time) ([]RawOrder, error)

	// FetchListingState returns the current remote state of a listing.
	// A confirmed missing listing returns ErrListingNotFound, which is a
	// distinguished result rather than a generic failure.
	FetchListingState(ctx context.Context, grant AccessGrant, platformProductID string) (*RemoteListingState, error)

	// Publish creates a listing on the platform and returns the assigned
	// platform product ID. Used by the republish flow.
	Publish(ctx context.Context, grant AccessGrant, draft ListingDraft) (string, error)

	// MapStatus translates a platform-native status string into the
	// canonical status. Pure and total: unknown input maps to
	// OrderStatusProcessing, never an error.
	MapStatus(raw string) OrderStatus
}

// ProviderRegistry provides access to configured platform adapters
type ProviderRegistry interface {
	// Provider returns the adapter for the given platform code
	Provider(code PlatformCode) (MarketplaceProvider, error)

	// Providers returns all registered adapters
	Providers() []MarketplaceProvider
}
