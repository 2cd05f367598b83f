package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// RunSyncCommand starts a sweep over a seller's connected accounts
type RunSyncCommand struct {
	// SellerID is the seller to sweep
	SellerID uuid.UUID
	// Platform restricts the sweep to one platform; nil means all
	Platform *channel.PlatformCode
	// Trigger records what started the run
	Trigger channel.RunTrigger
}

// RepublishCommand recreates a disconnected listing on its platform
type RepublishCommand struct {
	// SellerID is the listing owner
	SellerID uuid.UUID
	// ListingID is the disconnected listing to recreate
	ListingID uuid.UUID
}

// CredentialView is a credential stripped of secret material, safe to
// return over the API
type CredentialView struct {
	ID                uuid.UUID            `json:"id"`
	PlatformCode      channel.PlatformCode `json:"platform_code"`
	ExternalAccountID string               `json:"external_account_id"`
	Revoked           bool                 `json:"revoked"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty"`
	Watermark         *time.Time           `json:"watermark,omitempty"`
	LastSyncAt        *time.Time           `json:"last_sync_at,omitempty"`
	LastSyncError     string               `json:"last_sync_error,omitempty"`
}

// NewCredentialView builds the API-safe projection of a credential
func NewCredentialView(c *channel.Credential) CredentialView {
	return CredentialView{
		ID:                c.ID,
		PlatformCode:      c.PlatformCode,
		ExternalAccountID: c.ExternalAccountID,
		Revoked:           c.Revoked,
		ExpiresAt:         c.ExpiresAt,
		Watermark:         c.Watermark,
		LastSyncAt:        c.LastSyncAt,
		LastSyncError:     c.LastSyncError,
	}
}
