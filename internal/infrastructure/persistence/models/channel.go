package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// CredentialModel is the persistence model for the Credential domain entity.
// Token columns hold ciphertext only; plaintext never reaches this layer.
type CredentialModel struct {
	ID                uuid.UUID            `gorm:"type:uuid;primary_key"`
	SellerID          uuid.UUID            `gorm:"type:uuid;not null;index:idx_credential_seller,priority:1"`
	PlatformCode      channel.PlatformCode `gorm:"type:varchar(20);not null;index:idx_credential_seller,priority:2"`
	ExternalAccountID string               `gorm:"type:varchar(100);not null"`
	AccessToken       string               `gorm:"type:text;not null"`
	RefreshToken      string               `gorm:"type:text"`
	ExpiresAt         *time.Time
	LastRefreshedAt   *time.Time
	Revoked           bool `gorm:"not null;default:false;index"`
	Watermark         *time.Time
	LastSyncAt        *time.Time
	LastSyncError     string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "channel_credentials"
}

// ToDomain converts the persistence model to a domain Credential entity.
func (m *CredentialModel) ToDomain() *channel.Credential {
	return &channel.Credential{
		ID:                m.ID,
		SellerID:          m.SellerID,
		PlatformCode:      m.PlatformCode,
		ExternalAccountID: m.ExternalAccountID,
		AccessToken:       m.AccessToken,
		RefreshToken:      m.RefreshToken,
		ExpiresAt:         m.ExpiresAt,
		LastRefreshedAt:   m.LastRefreshedAt,
		Revoked:           m.Revoked,
		Watermark:         m.Watermark,
		LastSyncAt:        m.LastSyncAt,
		LastSyncError:     m.LastSyncError,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Credential entity.
func (m *CredentialModel) FromDomain(c *channel.Credential) {
	m.ID = c.ID
	m.SellerID = c.SellerID
	m.PlatformCode = c.PlatformCode
	m.ExternalAccountID = c.ExternalAccountID
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.ExpiresAt = c.ExpiresAt
	m.LastRefreshedAt = c.LastRefreshedAt
	m.Revoked = c.Revoked
	m.Watermark = c.Watermark
	m.LastSyncAt = c.LastSyncAt
	m.LastSyncError = c.LastSyncError
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// CredentialModelFromDomain creates a persistence model from a domain Credential.
func CredentialModelFromDomain(c *channel.Credential) *CredentialModel {
	m := &CredentialModel{}
	m.FromDomain(c)
	return m
}

// ChannelOrderModel is the persistence model for the CanonicalOrder domain
// entity. Identity for upsert purposes is (platform_code, external_order_id),
// enforced by a unique index.
type ChannelOrderModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key"`
	SellerID        uuid.UUID            `gorm:"type:uuid;not null;index:idx_channel_order_seller,priority:1"`
	CredentialID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	PlatformCode    channel.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_channel_order_identity,priority:1"`
	ExternalOrderID string               `gorm:"type:varchar(100);not null;uniqueIndex:idx_channel_order_identity,priority:2"`
	Status          channel.OrderStatus  `gorm:"type:varchar(20);not null;index"`
	RawStatus       string               `gorm:"type:varchar(100)"`
	BuyerName       string               `gorm:"type:varchar(255)"`
	BuyerEmail      string               `gorm:"type:varchar(255)"`
	Total           decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string               `gorm:"type:varchar(10)"`
	ItemsJSON       string               `gorm:"type:jsonb;column:items"`
	PlacedAt        time.Time            `gorm:"not null;index"`
	SellerNote      string               `gorm:"type:text"`
	RawPayload      string               `gorm:"type:jsonb"`
	CreatedAt       time.Time            `gorm:"not null"`
	UpdatedAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChannelOrderModel) TableName() string {
	return "channel_orders"
}

// ToDomain converts the persistence model to a domain CanonicalOrder entity.
func (m *ChannelOrderModel) ToDomain() *channel.CanonicalOrder {
	order := &channel.CanonicalOrder{
		ID:              m.ID,
		SellerID:        m.SellerID,
		CredentialID:    m.CredentialID,
		PlatformCode:    m.PlatformCode,
		ExternalOrderID: m.ExternalOrderID,
		Status:          m.Status,
		RawStatus:       m.RawStatus,
		BuyerName:       m.BuyerName,
		BuyerEmail:      m.BuyerEmail,
		Total:           m.Total,
		Currency:        m.Currency,
		Items:           make([]channel.OrderItem, 0),
		PlacedAt:        m.PlacedAt,
		SellerNote:      m.SellerNote,
		RawPayload:      m.RawPayload,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	if m.ItemsJSON != "" {
		var items []channel.OrderItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			order.Items = items
		}
	}

	return order
}

// FromDomain populates the persistence model from a domain CanonicalOrder entity.
func (m *ChannelOrderModel) FromDomain(o *channel.CanonicalOrder) {
	m.ID = o.ID
	m.SellerID = o.SellerID
	m.CredentialID = o.CredentialID
	m.PlatformCode = o.PlatformCode
	m.ExternalOrderID = o.ExternalOrderID
	m.Status = o.Status
	m.RawStatus = o.RawStatus
	m.BuyerName = o.BuyerName
	m.BuyerEmail = o.BuyerEmail
	m.Total = o.Total
	m.Currency = o.Currency
	m.PlacedAt = o.PlacedAt
	m.SellerNote = o.SellerNote
	m.RawPayload = o.RawPayload
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt

	if len(o.Items) > 0 {
		if jsonBytes, err := json.Marshal(o.Items); err == nil {
			m.ItemsJSON = string(jsonBytes)
		}
	} else {
		m.ItemsJSON = "[]"
	}
}

// ChannelOrderModelFromDomain creates a persistence model from a domain CanonicalOrder.
func ChannelOrderModelFromDomain(o *channel.CanonicalOrder) *ChannelOrderModel {
	m := &ChannelOrderModel{}
	m.FromDomain(o)
	return m
}

// ProductListingModel is the persistence model for the ProductListing domain entity.
type ProductListingModel struct {
	ID                uuid.UUID                 `gorm:"type:uuid;primary_key"`
	SellerID          uuid.UUID                 `gorm:"type:uuid;not null;index:idx_listing_seller,priority:1"`
	ProductID         uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_listing_product_credential,priority:1"`
	CredentialID      uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_listing_product_credential,priority:2;index"`
	PlatformCode      channel.PlatformCode      `gorm:"type:varchar(20);not null;index"`
	PlatformProductID *string                   `gorm:"type:varchar(100);index"`
	SyncStatus        channel.ListingSyncStatus `gorm:"type:varchar(20);not null;index"`
	SyncError         string                    `gorm:"type:text"`
	RemoteStock       *decimal.Decimal          `gorm:"type:decimal(18,4)"`
	LastCheckedAt     *time.Time
	Version           int64     `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductListingModel) TableName() string {
	return "product_listings"
}

// ToDomain converts the persistence model to a domain ProductListing entity.
func (m *ProductListingModel) ToDomain() *channel.ProductListing {
	return &channel.ProductListing{
		ID:                m.ID,
		SellerID:          m.SellerID,
		ProductID:         m.ProductID,
		CredentialID:      m.CredentialID,
		PlatformCode:      m.PlatformCode,
		PlatformProductID: m.PlatformProductID,
		SyncStatus:        m.SyncStatus,
		SyncError:         m.SyncError,
		RemoteStock:       m.RemoteStock,
		LastCheckedAt:     m.LastCheckedAt,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductListing entity.
func (m *ProductListingModel) FromDomain(l *channel.ProductListing) {
	m.ID = l.ID
	m.SellerID = l.SellerID
	m.ProductID = l.ProductID
	m.CredentialID = l.CredentialID
	m.PlatformCode = l.PlatformCode
	m.PlatformProductID = l.PlatformProductID
	m.SyncStatus = l.SyncStatus
	m.SyncError = l.SyncError
	m.RemoteStock = l.RemoteStock
	m.LastCheckedAt = l.LastCheckedAt
	m.Version = l.Version
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}

// ProductListingModelFromDomain creates a persistence model from a domain ProductListing.
func ProductListingModelFromDomain(l *channel.ProductListing) *ProductListingModel {
	m := &ProductListingModel{}
	m.FromDomain(l)
	return m
}

// SyncRunModel is the persistence model for the SyncRun domain entity.
type SyncRunModel struct {
	ID           uuid.UUID             `gorm:"type:uuid;primary_key"`
	SellerID     uuid.UUID             `gorm:"type:uuid;not null;index:idx_sync_run_seller,priority:1"`
	PlatformCode *channel.PlatformCode `gorm:"type:varchar(20)"`
	Trigger      channel.RunTrigger    `gorm:"type:varchar(20);not null"`
	Status       channel.RunStatus     `gorm:"type:varchar(20);not null;index"`
	ReportJSON   string                `gorm:"type:jsonb;column:report"`
	StartedAt    time.Time             `gorm:"not null;index:idx_sync_run_seller,priority:2,sort:desc"`
	FinishedAt   *time.Time
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts the persistence model to a domain SyncRun entity.
func (m *SyncRunModel) ToDomain() *channel.SyncRun {
	run := &channel.SyncRun{
		ID:           m.ID,
		SellerID:     m.SellerID,
		PlatformCode: m.PlatformCode,
		Trigger:      m.Trigger,
		Status:       m.Status,
		Report:       channel.NewRunReport(),
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
	}

	if m.ReportJSON != "" {
		var report channel.RunReport
		if err := json.Unmarshal([]byte(m.ReportJSON), &report); err == nil {
			run.Report = &report
		}
	}

	return run
}

// FromDomain populates the persistence model from a domain SyncRun entity.
func (m *SyncRunModel) FromDomain(r *channel.SyncRun) {
	m.ID = r.ID
	m.SellerID = r.SellerID
	m.PlatformCode = r.PlatformCode
	m.Trigger = r.Trigger
	m.Status = r.Status
	m.StartedAt = r.StartedAt
	m.FinishedAt = r.FinishedAt

	if r.Report != nil {
		if jsonBytes, err := json.Marshal(r.Report); err == nil {
			m.ReportJSON = string(jsonBytes)
		}
	}
}

// SyncRunModelFromDomain creates a persistence model from a domain SyncRun.
func SyncRunModelFromDomain(r *channel.SyncRun) *SyncRunModel {
	m := &SyncRunModel{}
	m.FromDomain(r)
	return m
}
