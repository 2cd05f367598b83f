package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// RunSyncRequest represents a request to start a reconciliation sweep
type RunSyncRequest struct {
	// Platform restricts the sweep to one platform; empty means all
	Platform string `json:"platform" binding:"omitempty,oneof=MERCADOLIVRE SHOPEE AMAZON"`
}

// RunResponse represents a sweep run in API responses
type RunResponse struct {
	ID           uuid.UUID          `json:"id"`
	PlatformCode *string            `json:"platform_code,omitempty"`
	Trigger      string             `json:"trigger"`
	Status       string             `json:"status"`
	Report       *channel.RunReport `json:"report,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
}

func newRunResponse(run *channel.SyncRun) RunResponse {
	resp := RunResponse{
		ID:         run.ID,
		Trigger:    string(run.Trigger),
		Status:     string(run.Status),
		Report:     run.Report,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.PlatformCode != nil {
		platform := run.PlatformCode.String()
		resp.PlatformCode = &platform
	}
	return resp
}

func newRunResponses(runs []channel.SyncRun) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, newRunResponse(&runs[i]))
	}
	return out
}

// ListingResponse represents a product listing in API responses
type ListingResponse struct {
	ID                uuid.UUID        `json:"id"`
	ProductID         uuid.UUID        `json:"product_id"`
	CredentialID      uuid.UUID        `json:"credential_id"`
	PlatformCode      string           `json:"platform_code"`
	PlatformProductID *string          `json:"platform_product_id,omitempty"`
	SyncStatus        string           `json:"sync_status"`
	SyncError         string           `json:"sync_error,omitempty"`
	RemoteStock       *decimal.Decimal `json:"remote_stock,omitempty"`
	LastCheckedAt     *time.Time       `json:"last_checked_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func newListingResponse(l *channel.ProductListing) ListingResponse {
	return ListingResponse{
		ID:                l.ID,
		ProductID:         l.ProductID,
		CredentialID:      l.CredentialID,
		PlatformCode:      l.PlatformCode.String(),
		PlatformProductID: l.PlatformProductID,
		SyncStatus:        string(l.SyncStatus),
		SyncError:         l.SyncError,
		RemoteStock:       l.RemoteStock,
		LastCheckedAt:     l.LastCheckedAt,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func newListingResponses(listings []channel.ProductListing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, newListingResponse(&listings[i]))
	}
	return out
}

// OrderResponse represents an imported order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	PlatformCode    string              `json:"platform_code"`
	ExternalOrderID string              `json:"external_order_id"`
	Status          string              `json:"status"`
	RawStatus       string              `json:"raw_status,omitempty"`
	BuyerName       string              `json:"buyer_name,omitempty"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Items           []channel.OrderItem `json:"items"`
	PlacedAt        time.Time           `json:"placed_at"`
	SellerNote      string              `json:"seller_note,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newOrderResponse(o *channel.CanonicalOrder) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		PlatformCode:    o.PlatformCode.String(),
		ExternalOrderID: o.ExternalOrderID,
		Status:          string(o.Status),
		RawStatus:       o.RawStatus,
		BuyerName:       o.BuyerName,
		Total:           o.Total,
		Currency:        o.Currency,
		Items:           o.Items,
		PlacedAt:        o.PlacedAt,
		SellerNote:      o.SellerNote,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func newOrderResponses(orders []channel.CanonicalOrder) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}

// ListOrdersRequest represents order list query parameters
type ListOrdersRequest struct {
	Platform    string `form:"platform" binding:"omitempty,oneof=MERCADOLIVRE SHOPEE AMAZON"`
	Status      string `form:"status"`
	PlacedAfter string `form:"placed_after"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListListingsRequest represents listing list query parameters
type ListListingsRequest struct {
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Platform  string `form:"platform" binding:"omitempty,oneof=MERCADOLIVRE SHOPEE AMAZON"`
	Status    string `form:"status"`
}

// ListRunsRequest represents run history query parameters
type ListRunsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ListCredentialsRequest represents credential list query parameters
type ListCredentialsRequest struct {
	Platform string `form:"platform" binding:"omitempty,oneof=MERCADOLIVRE SHOPEE AMAZON"`
}
