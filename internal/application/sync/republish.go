package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// RepublishService
// ---------------------------------------------------------------------------

// RepublishService recreates disconnected listings. Republish is the only way
// out of the disconnected state: the remote object is confirmed gone, so a new
// one is created from current central product data and the listing restarts
// its lifecycle from not_published.
type RepublishService struct {
	listingRepo    channel.ListingRepository
	credentialRepo channel.CredentialRepository
	providers      channel.ProviderRegistry
	cipher         *channel.SecretCipher
	stockReader    catalog.StockReader
	logger         *zap.Logger
}

// NewRepublishService creates a RepublishService
func NewRepublishService(
	listingRepo channel.ListingRepository,
	credentialRepo channel.CredentialRepository,
	providers channel.ProviderRegistry,
	cipher *channel.SecretCipher,
	stockReader catalog.StockReader,
	logger *zap.Logger,
) *RepublishService {
	return &RepublishService{
		listingRepo:    listingRepo,
		credentialRepo: credentialRepo,
		providers:      providers,
		cipher:         cipher,
		stockReader:    stockReader,
		logger:         logger,
	}
}

// Republish recreates the listing on its platform and returns the updated
// record. The listing must be disconnected and its credential active.
func (s *RepublishService) Republish(ctx context.Context, cmd RepublishCommand) (*channel.ProductListing, error) {
	listing, err := s.listingRepo.FindByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != cmd.SellerID {
		return nil, channel.ErrListingRecordNotFound
	}
	if listing.SyncStatus != channel.ListingStatusDisconnected {
		return nil, channel.ErrListingNotDisconnected
	}

	credential, err := s.credentialRepo.FindByID(ctx, listing.CredentialID)
	if err != nil {
		return nil, err
	}
	if !credential.IsActive() {
		return nil, channel.ErrCredentialRevoked
	}

	product, err := s.stockReader.FindByID(ctx, listing.ProductID)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.Provider(listing.PlatformCode)
	if err != nil {
		return nil, err
	}
	grant, err := credential.Grant(s.cipher)
	if err != nil {
		return nil, err
	}

	draft := channel.ListingDraft{
		ProductID: product.ID,
		SKU:       product.SKU,
		Title:     product.Name,
		Price:     product.Price,
		Quantity:  product.StockQuantity,
	}
	newPlatformProductID, err := provider.Publish(ctx, grant, draft)
	if err != nil {
		return nil, fmt.Errorf("publish listing: %w", err)
	}

	if err := listing.BeginRepublish(newPlatformProductID); err != nil {
		return nil, err
	}
	if err := s.listingRepo.Save(ctx, listing); err != nil {
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		// A sweep committed a transition while the publish call was in
		// flight. The remote object it observed is the old, confirmed-gone
		// one, so reapply the republish on the fresh record; if the listing
		// is somehow no longer disconnected, BeginRepublish rejects it.
		listing, err = s.listingRepo.FindByID(ctx, cmd.ListingID)
		if err != nil {
			return nil, err
		}
		if err := listing.BeginRepublish(newPlatformProductID); err != nil {
			return nil, err
		}
		if err := s.listingRepo.Save(ctx, listing); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Listing republished",
		zap.String("listing_id", listing.ID.String()),
		zap.String("platform_code", string(listing.PlatformCode)),
		zap.String("platform_product_id", newPlatformProductID),
	)
	return listing, nil
}
