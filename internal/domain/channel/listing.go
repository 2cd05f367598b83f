package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductListing Entity
// ---------------------------------------------------------------------------

// ProductListing tracks one product on one external account: the remote
// listing reference and the agreement status between central stock and the
// last observed remote state. A product has at most one listing per
// credential.
//
// All status transitions go through the Apply* methods below so every writer
// shares one state machine. Central stock is authoritative and is never
// mutated here; divergence only describes a reporting mismatch.
type ProductListing struct {
	// ID is the unique identifier of this listing record
	ID uuid.UUID
	// SellerID is the seller this listing belongs to
	SellerID uuid.UUID
	// ProductID is our internal product ID
	ProductID uuid.UUID
	// CredentialID identifies the external account the listing lives under
	CredentialID uuid.UUID
	// PlatformCode identifies the platform
	PlatformCode PlatformCode
	// PlatformProductID is the listing ID on the platform; nil until the
	// first successful publish
	PlatformProductID *string
	// SyncStatus is the current agreement status
	SyncStatus ListingSyncStatus
	// SyncError is the human-readable last failure, empty when healthy
	SyncError string
	// RemoteStock is the last observed remote quantity; nil when never observed
	RemoteStock *decimal.Decimal
	// LastCheckedAt is when the remote state was last queried
	LastCheckedAt *time.Time
	// Version is the optimistic concurrency token. The repository bumps it
	// on every save and rejects writes against a stale version; zero means
	// the record has never been persisted.
	Version int64
	// CreatedAt is when this listing record was created
	CreatedAt time.Time
	// UpdatedAt is when this listing record was last updated
	UpdatedAt time.Time
}

// NewProductListing creates a listing record for a product being published to
// a channel for the first time. It starts in not_published until a remote
// state fetch confirms the listing exists.
func NewProductListing(sellerID, productID, credentialID uuid.UUID, platformCode PlatformCode) (*ProductListing, error) {
	if sellerID == uuid.Nil {
		return nil, ErrInvalidSellerID
	}
	if productID == uuid.Nil {
		return nil, ErrInvalidProductID
	}
	if credentialID == uuid.Nil {
		return nil, ErrCredentialNotFound
	}
	if !platformCode.IsValid() {
		return nil, ErrInvalidPlatformCode
	}

	now := time.Now()
	return &ProductListing{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ProductID:    productID,
		CredentialID: credentialID,
		PlatformCode: platformCode,
		SyncStatus:   ListingStatusNotPublished,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AssignPlatformProduct records the platform product ID assigned by a publish
func (l *ProductListing) AssignPlatformProduct(platformProductID string) error {
	if platformProductID == "" {
		return ErrInvalidExternalID
	}
	l.PlatformProductID = &platformProductID
	l.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// State machine transitions
// ---------------------------------------------------------------------------

// ApplyRemoteState applies a successful remote state observation. A confirmed
// fetch recovers the listing from any prior state, including disconnected:
// equal stock means synchronized, a mismatch means divergent. Central stock
// is compared, never overwritten.
//
// The previous status is returned so callers can detect transitions worth
// alerting on.
func (l *ProductListing) ApplyRemoteState(remote RemoteListingState, centralStock decimal.Decimal) ListingSyncStatus {
	prev := l.SyncStatus

	stock := remote.Stock
	l.RemoteStock = &stock
	l.SyncError = ""
	at := remote.CheckedAt
	if at.IsZero() {
		at = time.Now()
	}
	l.LastCheckedAt = &at

	if remote.Stock.Equal(centralStock) {
		l.SyncStatus = ListingStatusSynchronized
	} else {
		l.SyncStatus = ListingStatusDivergent
	}
	l.UpdatedAt = time.Now()
	return prev
}

// ApplyNotFound applies a confirmed remote not-found. A fresh NotFound
// always wins, regardless of the prior status; only an explicit republish
// leaves this state.
func (l *ProductListing) ApplyNotFound(at time.Time) ListingSyncStatus {
	prev := l.SyncStatus
	l.SyncStatus = ListingStatusDisconnected
	l.SyncError = "listing no longer exists on platform"
	l.RemoteStock = nil
	l.LastCheckedAt = &at
	l.UpdatedAt = time.Now()
	return prev
}

// ApplyAuthExpired applies a credential-level authentication failure. It
// does not overwrite disconnected: a dead listing stays reported as dead.
func (l *ProductListing) ApplyAuthExpired(at time.Time) ListingSyncStatus {
	prev := l.SyncStatus
	l.LastCheckedAt = &at
	if l.SyncStatus != ListingStatusDisconnected {
		l.SyncStatus = ListingStatusTokenExpired
		l.SyncError = "platform credential expired, reconnection required"
	}
	l.UpdatedAt = time.Now()
	return prev
}

// ApplyTransientError applies a retryable failure. Sticky states
// (disconnected, token_expired) keep their status so flakiness cannot mask a
// real problem; the failure is still recorded.
func (l *ProductListing) ApplyTransientError(message string, at time.Time) ListingSyncStatus {
	prev := l.SyncStatus
	l.LastCheckedAt = &at
	if !l.SyncStatus.IsSticky() {
		l.SyncStatus = ListingStatusError
		l.SyncError = message
	}
	l.UpdatedAt = time.Now()
	return prev
}

// BeginRepublish resets a disconnected listing for recreation. The previous
// remote object is confirmed gone, so the new platform product ID replaces
// it and the listing returns to not_published; it becomes synchronized only
// after the next confirmed remote state fetch.
func (l *ProductListing) BeginRepublish(newPlatformProductID string) error {
	if l.SyncStatus != ListingStatusDisconnected {
		return ErrListingNotDisconnected
	}
	if newPlatformProductID == "" {
		return ErrInvalidExternalID
	}
	l.PlatformProductID = &newPlatformProductID
	l.SyncStatus = ListingStatusNotPublished
	l.SyncError = ""
	l.RemoteStock = nil
	l.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// ListingRepository
// ---------------------------------------------------------------------------

// ListingFilter defines filter criteria for listing queries
type ListingFilter struct {
	// ProductID filters to one product (optional)
	ProductID *uuid.UUID
	// PlatformCode filters by platform (optional)
	PlatformCode *PlatformCode
	// SyncStatus filters by status (optional)
	SyncStatus *ListingSyncStatus
}

// ListingRepository persists product listings
type ListingRepository interface {
	// FindByID finds a listing by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductListing, error)

	// FindByCredential returns all listings tracked under a credential;
	// reconciliation always scans these in full
	FindByCredential(ctx context.Context, credentialID uuid.UUID) ([]ProductListing, error)

	// FindAll lists a seller's listings matching the filter
	FindAll(ctx context.Context, sellerID uuid.UUID, filter ListingFilter) ([]ProductListing, error)

	// Save creates or updates a listing. Updates are version-checked: a
	// write carrying a stale Version fails with
	// shared.ErrConcurrencyConflict and nothing is written, so concurrent
	// writers for the same (product, channel) record are serialized.
	Save(ctx context.Context, listing *ProductListing) error
}
