package channel

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockbridge/backend/internal/domain/shared"
)

// Event types emitted by the sync engine. An external notification component
// subscribes to these and renders user-facing messages; the engine never
// formats messages itself.
const (
	EventTypeListingDisconnected  = "channel.listing.disconnected"
	EventTypeDivergenceDetected   = "channel.listing.divergence_detected"
	EventTypeCredentialAuthLapsed = "channel.credential.auth_expired"
)

// ListingDisconnectedEvent is raised when a provider confirms a listing no
// longer exists remotely. Actionable: the seller must republish.
type ListingDisconnectedEvent struct {
	shared.BaseDomainEvent
	ListingID         uuid.UUID    `json:"listing_id"`
	ProductID         uuid.UUID    `json:"product_id"`
	PlatformCode      PlatformCode `json:"platform_code"`
	PlatformProductID string       `json:"platform_product_id"`
}

// NewListingDisconnectedEvent creates a ListingDisconnectedEvent
func NewListingDisconnectedEvent(listing *ProductListing) *ListingDisconnectedEvent {
	platformProductID := ""
	if listing.PlatformProductID != nil {
		platformProductID = *listing.PlatformProductID
	}
	return &ListingDisconnectedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeListingDisconnected, listing.ID, "ProductListing", listing.SellerID),
		ListingID:         listing.ID,
		ProductID:         listing.ProductID,
		PlatformCode:      listing.PlatformCode,
		PlatformProductID: platformProductID,
	}
}

// DivergenceDetectedEvent is raised when remote stock disagrees with central
// stock. Central stock stays authoritative; this is a warning, not a
// correction.
type DivergenceDetectedEvent struct {
	shared.BaseDomainEvent
	ListingID    uuid.UUID       `json:"listing_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	PlatformCode PlatformCode    `json:"platform_code"`
	CentralStock decimal.Decimal `json:"central_stock"`
	RemoteStock  decimal.Decimal `json:"remote_stock"`
}

// NewDivergenceDetectedEvent creates a DivergenceDetectedEvent
func NewDivergenceDetectedEvent(listing *ProductListing, centralStock, remoteStock decimal.Decimal) *DivergenceDetectedEvent {
	return &DivergenceDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDivergenceDetected, listing.ID, "ProductListing", listing.SellerID),
		ListingID:       listing.ID,
		ProductID:       listing.ProductID,
		PlatformCode:    listing.PlatformCode,
		CentralStock:    centralStock,
		RemoteStock:     remoteStock,
	}
}

// CredentialAuthExpiredEvent is raised when a platform rejects a credential.
// Actionable: the seller must reconnect the account.
type CredentialAuthExpiredEvent struct {
	shared.BaseDomainEvent
	CredentialID      uuid.UUID    `json:"credential_id"`
	PlatformCode      PlatformCode `json:"platform_code"`
	ExternalAccountID string       `json:"external_account_id"`
}

// NewCredentialAuthExpiredEvent creates a CredentialAuthExpiredEvent
func NewCredentialAuthExpiredEvent(credential *Credential) *CredentialAuthExpiredEvent {
	return &CredentialAuthExpiredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeCredentialAuthLapsed, credential.ID, "Credential", credential.SellerID),
		CredentialID:      credential.ID,
		PlatformCode:      credential.PlatformCode,
		ExternalAccountID: credential.ExternalAccountID,
	}
}
