package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/stockbridge/backend/internal/application/sync"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/interfaces/http/dto"
)

// SweepRunner starts reconciliation sweeps
type SweepRunner interface {
	RunSync(ctx context.Context, cmd appsync.RunSyncCommand) (*channel.SyncRun, error)
}

// ListingRepublisher recreates disconnected listings on their platform
type ListingRepublisher interface {
	Republish(ctx context.Context, cmd appsync.RepublishCommand) (*channel.ProductListing, error)
}

// ChannelQueries serves the dashboard read models
type ChannelQueries interface {
	ListOrders(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) ([]channel.CanonicalOrder, int64, error)
	ListListings(ctx context.Context, sellerID uuid.UUID, filter channel.ListingFilter) ([]channel.ProductListing, error)
	GetListing(ctx context.Context, sellerID, listingID uuid.UUID) (*channel.ProductListing, error)
	RecentRuns(ctx context.Context, sellerID uuid.UUID, limit int) ([]channel.SyncRun, error)
	ListCredentials(ctx context.Context, sellerID uuid.UUID, platform *channel.PlatformCode) ([]appsync.CredentialView, error)
}

// SyncHandler exposes the reconciliation API: manual sweeps, listing
// republish, and the order/listing/run/credential read models.
type SyncHandler struct {
	BaseHandler
	runner      SweepRunner
	republisher ListingRepublisher
	queries     ChannelQueries
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SweepRunner, republisher ListingRepublisher, queries ChannelQueries) *SyncHandler {
	return &SyncHandler{
		runner:      runner,
		republisher: republisher,
		queries:     queries,
	}
}

// RegisterRoutes registers the sync API routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	syncGroup := rg.Group("/sync")
	{
		syncGroup.POST("/run", h.RunSync)
		syncGroup.GET("/runs", h.ListRuns)
	}

	listings := rg.Group("/listings")
	{
		listings.GET("", h.ListListings)
		listings.GET("/:id", h.GetListing)
		listings.POST("/:id/republish", h.Republish)
	}

	rg.GET("/orders", h.ListOrders)
	rg.GET("/credentials", h.ListCredentials)
}

// RunSync starts a sweep over the seller's connected accounts. The sweep runs
// synchronously; a second request for the same seller while one is in flight
// gets a 409.
func (h *SyncHandler) RunSync(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var req RunSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	cmd := appsync.RunSyncCommand{
		SellerID: sellerID,
		Trigger:  channel.RunTriggerManual,
	}
	if req.Platform != "" {
		platform := channel.PlatformCode(req.Platform)
		cmd.Platform = &platform
	}

	run, err := h.runner.RunSync(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newRunResponse(run))
}

// Republish recreates a disconnected listing on its platform
func (h *SyncHandler) Republish(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid listing ID")
		return
	}
	listingID := uuid.MustParse(idReq.ID)

	listing, err := h.republisher.Republish(c.Request.Context(), appsync.RepublishCommand{
		SellerID:  sellerID,
		ListingID: listingID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newListingResponse(listing))
}

// ListListings lists the seller's tracked listings
func (h *SyncHandler) ListListings(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var req ListListingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var filter channel.ListingFilter
	if req.ProductID != "" {
		productID := uuid.MustParse(req.ProductID)
		filter.ProductID = &productID
	}
	if req.Platform != "" {
		platform := channel.PlatformCode(req.Platform)
		filter.PlatformCode = &platform
	}
	if req.Status != "" {
		status := channel.ListingSyncStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "unknown listing status")
			return
		}
		filter.SyncStatus = &status
	}

	listings, err := h.queries.ListListings(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newListingResponses(listings))
}

// GetListing returns one listing by ID
func (h *SyncHandler) GetListing(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid listing ID")
		return
	}

	listing, err := h.queries.GetListing(c.Request.Context(), sellerID, uuid.MustParse(idReq.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newListingResponse(listing))
}

// ListOrders lists the seller's imported orders with filtering and pagination
func (h *SyncHandler) ListOrders(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	filter := channel.OrderFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Platform != "" {
		platform := channel.PlatformCode(req.Platform)
		filter.PlatformCode = &platform
	}
	if req.Status != "" {
		status := channel.OrderStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "unknown order status")
			return
		}
		filter.Status = &status
	}
	if req.PlacedAfter != "" {
		placedAfter, err := time.Parse(time.RFC3339, req.PlacedAfter)
		if err != nil {
			h.BadRequest(c, "placed_after must be RFC3339")
			return
		}
		filter.PlacedAfter = &placedAfter
	}

	orders, total, err := h.queries.ListOrders(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, newOrderResponses(orders), total, req.Page, req.PageSize)
}

// ListRuns returns the seller's recent sweep runs, newest first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	runs, err := h.queries.RecentRuns(c.Request.Context(), sellerID, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newRunResponses(runs))
}

// ListCredentials returns the seller's connected accounts without secret
// material
func (h *SyncHandler) ListCredentials(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "seller identity required")
		return
	}

	var req ListCredentialsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var platform *channel.PlatformCode
	if req.Platform != "" {
		p := channel.PlatformCode(req.Platform)
		platform = &p
	}

	credentials, err := h.queries.ListCredentials(c.Request.Context(), sellerID, platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, credentials)
}
