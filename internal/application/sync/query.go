package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// QueryService
// ---------------------------------------------------------------------------

// QueryService serves the dashboard read models: orders, listings, recent
// runs, and connected accounts. Credentials are projected into views without
// secret material before leaving the application layer.
type QueryService struct {
	credentialRepo channel.CredentialRepository
	orderRepo      channel.OrderRepository
	listingRepo    channel.ListingRepository
	runRepo        channel.SyncRunRepository
}

// NewQueryService creates a QueryService
func NewQueryService(
	credentialRepo channel.CredentialRepository,
	orderRepo channel.OrderRepository,
	listingRepo channel.ListingRepository,
	runRepo channel.SyncRunRepository,
) *QueryService {
	return &QueryService{
		credentialRepo: credentialRepo,
		orderRepo:      orderRepo,
		listingRepo:    listingRepo,
		runRepo:        runRepo,
	}
}

// ListOrders lists a seller's imported orders with filtering and pagination
func (s *QueryService) ListOrders(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) ([]channel.CanonicalOrder, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, err := s.orderRepo.FindAll(ctx, sellerID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.orderRepo.Count(ctx, sellerID, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// ListListings lists a seller's channel listings with their sync status
func (s *QueryService) ListListings(ctx context.Context, sellerID uuid.UUID, filter channel.ListingFilter) ([]channel.ProductListing, error) {
	return s.listingRepo.FindAll(ctx, sellerID, filter)
}

// GetListing returns one listing, scoped to the seller
func (s *QueryService) GetListing(ctx context.Context, sellerID, listingID uuid.UUID) (*channel.ProductListing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, channel.ErrListingRecordNotFound
	}
	return listing, nil
}

// RecentRuns returns the seller's most recent sweep records
func (s *QueryService) RecentRuns(ctx context.Context, sellerID uuid.UUID, limit int) ([]channel.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.runRepo.FindRecentBySeller(ctx, sellerID, limit)
}

// ListCredentials returns the seller's connected accounts without secrets
func (s *QueryService) ListCredentials(ctx context.Context, sellerID uuid.UUID, platform *channel.PlatformCode) ([]CredentialView, error) {
	credentials, err := s.credentialRepo.FindActiveBySeller(ctx, sellerID, platform)
	if err != nil {
		return nil, err
	}
	views := make([]CredentialView, 0, len(credentials))
	for i := range credentials {
		views = append(views, NewCredentialView(&credentials[i]))
	}
	return views, nil
}
