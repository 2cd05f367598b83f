package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

type republishFixture struct {
	listingRepo    *MockListingRepository
	credentialRepo *MockCredentialRepository
	registry       *MockProviderRegistry
	stockReader    *MockStockReader
	cipher         *channel.SecretCipher
	service        *RepublishService
}

func newRepublishFixture(t *testing.T) *republishFixture {
	t.Helper()
	f := &republishFixture{
		listingRepo:    new(MockListingRepository),
		credentialRepo: new(MockCredentialRepository),
		registry:       new(MockProviderRegistry),
		stockReader:    new(MockStockReader),
		cipher:         testCipher(t),
	}
	f.service = NewRepublishService(
		f.listingRepo, f.credentialRepo, f.registry, f.cipher, f.stockReader, zap.NewNop(),
	)
	return f
}

func TestRepublish_Success(t *testing.T) {
	f := newRepublishFixture(t)

	cred := testCredential(t, f.cipher, channel.PlatformCodeMercadoLivre)
	listing := testListing(t, cred.ID, channel.PlatformCodeMercadoLivre, "ml-old", channel.ListingStatusDisconnected)

	product := &catalog.Product{
		ID:            listing.ProductID,
		SellerID:      testSellerID,
		SKU:           "SKU-42",
		Name:          "Ceramic Mug",
		Price:         decimal.NewFromFloat(49.90),
		StockQuantity: decimal.NewFromInt(12),
	}

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&listing, nil)
	f.credentialRepo.On("FindByID", mock.Anything, cred.ID).Return(&cred, nil)
	f.stockReader.On("FindByID", mock.Anything, listing.ProductID).Return(product, nil)

	provider := &MockProvider{code: channel.PlatformCodeMercadoLivre}
	f.registry.On("Provider", channel.PlatformCodeMercadoLivre).Return(provider, nil)
	provider.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(d channel.ListingDraft) bool {
		return d.SKU == "SKU-42" && d.Quantity.Equal(decimal.NewFromInt(12))
	})).Return("ml-new", nil)

	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*channel.ProductListing")).Return(nil)

	updated, err := f.service.Republish(context.Background(), RepublishCommand{
		SellerID:  testSellerID,
		ListingID: listing.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, channel.ListingStatusNotPublished, updated.SyncStatus)
	require.NotNil(t, updated.PlatformProductID)
	assert.Equal(t, "ml-new", *updated.PlatformProductID)
	f.listingRepo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestRepublish_ReappliesAfterConcurrentSweepWrite(t *testing.T) {
	f := newRepublishFixture(t)

	cred := testCredential(t, f.cipher, channel.PlatformCodeMercadoLivre)
	listing := testListing(t, cred.ID, channel.PlatformCodeMercadoLivre, "ml-old", channel.ListingStatusDisconnected)
	listing.Version = 3

	// A sweep committed a write for the old remote object while the publish
	// call was in flight, so the first save loses the version check. The
	// re-read hands back the record at the sweep's version, still
	// disconnected, and the republish is reapplied on top of it.
	fresh := listing
	fresh.Version = 4

	product := &catalog.Product{
		ID:            listing.ProductID,
		SellerID:      testSellerID,
		SKU:           "SKU-42",
		Name:          "Ceramic Mug",
		Price:         decimal.NewFromFloat(49.90),
		StockQuantity: decimal.NewFromInt(12),
	}

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&listing, nil).Once()
	f.credentialRepo.On("FindByID", mock.Anything, cred.ID).Return(&cred, nil)
	f.stockReader.On("FindByID", mock.Anything, listing.ProductID).Return(product, nil)

	provider := &MockProvider{code: channel.PlatformCodeMercadoLivre}
	f.registry.On("Provider", channel.PlatformCodeMercadoLivre).Return(provider, nil)
	provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("ml-new", nil)

	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*channel.ProductListing")).
		Return(shared.ErrConcurrencyConflict).Once()
	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&fresh, nil).Once()
	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*channel.ProductListing")).
		Return(nil).Once()

	updated, err := f.service.Republish(context.Background(), RepublishCommand{
		SellerID:  testSellerID,
		ListingID: listing.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, channel.ListingStatusNotPublished, updated.SyncStatus)
	require.NotNil(t, updated.PlatformProductID)
	assert.Equal(t, "ml-new", *updated.PlatformProductID)
	f.listingRepo.AssertExpectations(t)
}

func TestRepublish_RejectsNonDisconnectedListing(t *testing.T) {
	f := newRepublishFixture(t)

	cred := testCredential(t, f.cipher, channel.PlatformCodeShopee)
	listing := testListing(t, cred.ID, channel.PlatformCodeShopee, "sp-1", channel.ListingStatusDivergent)
	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&listing, nil)

	_, err := f.service.Republish(context.Background(), RepublishCommand{
		SellerID:  testSellerID,
		ListingID: listing.ID,
	})

	assert.ErrorIs(t, err, channel.ErrListingNotDisconnected)
	f.registry.AssertNotCalled(t, "Provider", mock.Anything)
}

func TestRepublish_RejectsForeignListing(t *testing.T) {
	f := newRepublishFixture(t)

	cred := testCredential(t, f.cipher, channel.PlatformCodeShopee)
	listing := testListing(t, cred.ID, channel.PlatformCodeShopee, "sp-1", channel.ListingStatusDisconnected)
	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&listing, nil)

	_, err := f.service.Republish(context.Background(), RepublishCommand{
		SellerID:  uuid.New(),
		ListingID: listing.ID,
	})

	assert.ErrorIs(t, err, channel.ErrListingRecordNotFound)
}

func TestRepublish_RejectsRevokedCredential(t *testing.T) {
	f := newRepublishFixture(t)

	cred := testCredential(t, f.cipher, channel.PlatformCodeMercadoLivre)
	cred.Revoke()
	listing := testListing(t, cred.ID, channel.PlatformCodeMercadoLivre, "ml-1", channel.ListingStatusDisconnected)

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(&listing, nil)
	f.credentialRepo.On("FindByID", mock.Anything, cred.ID).Return(&cred, nil)

	_, err := f.service.Republish(context.Background(), RepublishCommand{
		SellerID:  testSellerID,
		ListingID: listing.ID,
	})

	assert.ErrorIs(t, err, channel.ErrCredentialRevoked)
}
