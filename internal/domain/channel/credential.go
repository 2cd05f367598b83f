package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Credential Entity
// ---------------------------------------------------------------------------

// Credential is the stored access material for one (seller, platform,
// external account) tuple. It is created by the OAuth/handshake flow (out of
// core scope) and consumed by the sync engine. At most one non-revoked
// credential per tuple is active; multiple accounts per platform are allowed.
//
// Credentials are never hard-deleted while orders reference them; disconnects
// and remote invalid-grant responses mark them revoked instead.
type Credential struct {
	// ID is the unique identifier of this credential
	ID uuid.UUID
	// SellerID is the seller this credential belongs to
	SellerID uuid.UUID
	// PlatformCode identifies the platform this credential authenticates against
	PlatformCode PlatformCode
	// ExternalAccountID is the account identifier on the platform
	ExternalAccountID string
	// AccessToken is the encrypted access secret (AES-256-GCM, see SecretCipher)
	AccessToken string
	// RefreshToken is the encrypted refresh secret, empty for platforms without one
	RefreshToken string
	// ExpiresAt is when the access secret expires; nil for non-expiring tokens
	ExpiresAt *time.Time
	// LastRefreshedAt is when the token was last refreshed
	LastRefreshedAt *time.Time
	// Revoked marks the credential unusable until the seller reconnects
	Revoked bool
	// Watermark is the timestamp up to which orders are confirmed synced.
	// Advanced only to observed remote order timestamps, never to "now".
	Watermark *time.Time
	// LastSyncAt is when the last sweep touched this credential
	LastSyncAt *time.Time
	// LastSyncError holds the failure of the last sweep, empty on success
	LastSyncError string
	// CreatedAt is when this credential was created
	CreatedAt time.Time
	// UpdatedAt is when this credential was last updated
	UpdatedAt time.Time
}

// NewCredential creates a credential from a completed handshake. The secrets
// must already be encrypted by the caller.
func NewCredential(sellerID uuid.UUID, platformCode PlatformCode, externalAccountID, encryptedAccessToken string, expiresAt *time.Time) (*Credential, error) {
	if sellerID == uuid.Nil {
		return nil, ErrInvalidSellerID
	}
	if !platformCode.IsValid() {
		return nil, ErrInvalidPlatformCode
	}
	if externalAccountID == "" {
		return nil, ErrInvalidExternalID
	}
	if encryptedAccessToken == "" {
		return nil, ErrCredentialSecretEmpty
	}

	now := time.Now()
	return &Credential{
		ID:                uuid.New(),
		SellerID:          sellerID,
		PlatformCode:      platformCode,
		ExternalAccountID: externalAccountID,
		AccessToken:       encryptedAccessToken,
		ExpiresAt:         expiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsActive returns true if the credential may be used for sync
func (c *Credential) IsActive() bool {
	return !c.Revoked
}

// IsExpired returns true if the access secret is known to be expired at the
// given instant. Credentials without an expiry never expire locally.
func (c *Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Revoke marks the credential unusable; the seller must reconnect
func (c *Credential) Revoke() {
	c.Revoked = true
	c.UpdatedAt = time.Now()
}

// MarkRefreshed records a successful token refresh
func (c *Credential) MarkRefreshed(encryptedAccessToken string, expiresAt *time.Time) error {
	if encryptedAccessToken == "" {
		return ErrCredentialSecretEmpty
	}
	now := time.Now()
	c.AccessToken = encryptedAccessToken
	c.ExpiresAt = expiresAt
	c.LastRefreshedAt = &now
	c.Revoked = false
	c.UpdatedAt = now
	return nil
}

// AdvanceWatermark moves the order-sync high-water mark forward. Moves
// backwards are ignored so a re-run with an overlapping window cannot lose
// already-confirmed progress.
func (c *Credential) AdvanceWatermark(observed time.Time) {
	if observed.IsZero() {
		return
	}
	if c.Watermark == nil || observed.After(*c.Watermark) {
		t := observed
		c.Watermark = &t
		c.UpdatedAt = time.Now()
	}
}

// SinceWindow returns the fetch start for the next order sweep: the watermark
// minus a small overlap to tolerate clock skew, or the lookback horizon on
// first sync. Duplicates inside the overlap are absorbed by upsert.
func (c *Credential) SinceWindow(now time.Time, lookback, overlap time.Duration) time.Time {
	if c.Watermark == nil {
		return now.Add(-lookback)
	}
	return c.Watermark.Add(-overlap)
}

// RecordSyncOutcome records the result of a sweep over this credential
func (c *Credential) RecordSyncOutcome(at time.Time, syncErr string) {
	t := at
	c.LastSyncAt = &t
	c.LastSyncError = syncErr
	c.UpdatedAt = time.Now()
}

// Grant decrypts the access secret for use in a provider call. The plaintext
// only ever lives in the transient AccessGrant value.
func (c *Credential) Grant(cipher *SecretCipher) (AccessGrant, error) {
	if c.Revoked {
		return AccessGrant{}, ErrCredentialRevoked
	}
	token, err := cipher.Decrypt(c.AccessToken)
	if err != nil {
		return AccessGrant{}, err
	}
	return AccessGrant{
		CredentialID:      c.ID,
		SellerID:          c.SellerID,
		PlatformCode:      c.PlatformCode,
		ExternalAccountID: c.ExternalAccountID,
		AccessToken:       token,
	}, nil
}

// AccessGrant is a decrypted, ready-to-use credential handed to a provider
// adapter for the duration of one call. It is never persisted.
type AccessGrant struct {
	CredentialID      uuid.UUID
	SellerID          uuid.UUID
	PlatformCode      PlatformCode
	ExternalAccountID string
	AccessToken       string
}

// ---------------------------------------------------------------------------
// CredentialRepository
// ---------------------------------------------------------------------------

// CredentialRepository persists credentials
type CredentialRepository interface {
	// FindByID finds a credential by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Credential, error)

	// FindActiveBySeller returns all non-revoked credentials for a seller,
	// optionally filtered to one platform (nil means all platforms)
	FindActiveBySeller(ctx context.Context, sellerID uuid.UUID, platform *PlatformCode) ([]Credential, error)

	// ListSellersWithActive returns the distinct sellers that have at least
	// one non-revoked credential; used by the scheduled trigger
	ListSellersWithActive(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a credential
	Save(ctx context.Context, credential *Credential) error
}
