package channel

import "errors"

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors, classified at the adapter boundary
	ErrAuthExpired             = errors.New("channel: platform credential expired or invalid")
	ErrListingNotFound         = errors.New("channel: listing not found on platform")
	ErrPlatformUnavailable     = errors.New("channel: platform temporarily unavailable")
	ErrPlatformRateLimited     = errors.New("channel: platform rate limited")
	ErrPlatformInvalidResponse = errors.New("channel: invalid platform response")
	ErrPlatformNotConfigured   = errors.New("channel: platform not configured")
	ErrPlatformRequestFailed   = errors.New("channel: platform request failed")

	// Mapping errors
	ErrMappingDefect = errors.New("channel: malformed provider payload")

	// Credential errors
	ErrCredentialNotFound    = errors.New("channel: credential not found")
	ErrCredentialRevoked     = errors.New("channel: credential revoked")
	ErrInvalidSellerID       = errors.New("channel: invalid seller ID")
	ErrInvalidPlatformCode   = errors.New("channel: invalid platform code")
	ErrInvalidExternalID     = errors.New("channel: invalid external identifier")
	ErrCredentialSecretEmpty = errors.New("channel: credential secret is empty")

	// Order errors
	ErrOrderNotFound = errors.New("channel: order not found")

	// Listing errors
	ErrListingRecordNotFound  = errors.New("channel: listing record not found")
	ErrListingNotDisconnected = errors.New("channel: listing is not disconnected")
	ErrInvalidProductID       = errors.New("channel: invalid product ID")
)

// IsAuthExpired reports whether err is a credential-level authentication
// failure requiring user reconnection.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsNotFound reports whether err is a confirmed remote not-found, the
// trigger for the disconnected listing state.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrListingNotFound)
}

// IsTransient reports whether err is a retryable network or server failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrPlatformUnavailable) || errors.Is(err, ErrPlatformRateLimited)
}

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies an external marketplace platform
type PlatformCode string

const (
	// PlatformCodeMercadoLivre represents Mercado Livre marketplace
	PlatformCodeMercadoLivre PlatformCode = "MERCADOLIVRE"
	// PlatformCodeShopee represents Shopee marketplace
	PlatformCodeShopee PlatformCode = "SHOPEE"
	// PlatformCodeAmazon represents Amazon marketplace
	PlatformCodeAmazon PlatformCode = "AMAZON"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeMercadoLivre, PlatformCodeShopee, PlatformCodeAmazon:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeMercadoLivre:
		return "Mercado Livre"
	case PlatformCodeShopee:
		return "Shopee"
	case PlatformCodeAmazon:
		return "Amazon"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// OrderStatus
// ---------------------------------------------------------------------------

// OrderStatus is the canonical, platform-agnostic order status
type OrderStatus string

const (
	// OrderStatusPending indicates order is awaiting payment
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid indicates payment received
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusProcessing indicates the order is being prepared; also the
	// safe default for unmapped platform vocabulary
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order is in transit
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the buyer
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the order was refunded
	OrderStatusRefunded OrderStatus = "refunded"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal returns true if the status is a terminal state
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// ListingSyncStatus
// ---------------------------------------------------------------------------

// ListingSyncStatus is the agreement status between central stock and the
// last observed remote listing state.
type ListingSyncStatus string

const (
	// ListingStatusSynchronized indicates central and remote stock agree
	ListingStatusSynchronized ListingSyncStatus = "synchronized"
	// ListingStatusDivergent indicates remote stock disagrees with central stock
	ListingStatusDivergent ListingSyncStatus = "divergent"
	// ListingStatusNotPublished indicates the listing has no confirmed remote counterpart yet
	ListingStatusNotPublished ListingSyncStatus = "not_published"
	// ListingStatusTokenExpired indicates the owning credential needs reconnection
	ListingStatusTokenExpired ListingSyncStatus = "token_expired"
	// ListingStatusError indicates the last check failed for a transient reason
	ListingStatusError ListingSyncStatus = "error"
	// ListingStatusDisconnected indicates the remote object is confirmed gone;
	// terminal until an explicit republish
	ListingStatusDisconnected ListingSyncStatus = "disconnected"
)

// IsValid returns true if the status is valid
func (s ListingSyncStatus) IsValid() bool {
	switch s {
	case ListingStatusSynchronized, ListingStatusDivergent, ListingStatusNotPublished,
		ListingStatusTokenExpired, ListingStatusError, ListingStatusDisconnected:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingSyncStatus
func (s ListingSyncStatus) String() string {
	return string(s)
}

// IsSticky returns true for states that a transient failure must not
// downgrade. A flaky network call while a listing is disconnected would
// otherwise mask the real problem behind a generic error.
func (s ListingSyncStatus) IsSticky() bool {
	return s == ListingStatusDisconnected || s == ListingStatusTokenExpired
}

// RequiresUserAction returns true if the seller has to intervene
// (reconnect or republish) before sync can recover.
func (s ListingSyncStatus) RequiresUserAction() bool {
	return s == ListingStatusDisconnected || s == ListingStatusTokenExpired
}
