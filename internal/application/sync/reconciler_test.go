package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

type reconcilerFixture struct {
	listingRepo *MockListingRepository
	stockReader *MockStockReader
	events      *MockEventPublisher
	reconciler  *Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	f := &reconcilerFixture{
		listingRepo: new(MockListingRepository),
		stockReader: new(MockStockReader),
		events:      new(MockEventPublisher),
	}
	retry := RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	f.reconciler = NewReconciler(f.stockReader, f.listingRepo, f.events, retry, zap.NewNop())
	return f
}

func TestReconcileListing_DropsStaleObservationAfterConcurrentWrite(t *testing.T) {
	f := newReconcilerFixture(t)

	// The sweep loaded this copy before a republish committed. The platform
	// then reports the old remote object gone, but the save loses the version
	// check against the republished record: the observation must be dropped
	// without an error and without a disconnected alert, leaving the
	// republished state in place.
	listing := testListing(t, uuid.New(), channel.PlatformCodeMercadoLivre, "ml-old", channel.ListingStatusSynchronized)
	listing.Version = 3

	provider := &MockProvider{code: channel.PlatformCodeMercadoLivre}
	provider.On("FetchListingState", mock.Anything, mock.Anything, "ml-old").
		Return(nil, channel.ErrListingNotFound)

	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*channel.ProductListing")).
		Return(shared.ErrConcurrencyConflict).Once()

	err := f.reconciler.ReconcileListing(context.Background(), provider, channel.AccessGrant{}, &listing)

	require.NoError(t, err)
	f.listingRepo.AssertExpectations(t)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestReconcileListing_ConfirmedGoneDisconnectsAndAlerts(t *testing.T) {
	f := newReconcilerFixture(t)

	listing := testListing(t, uuid.New(), channel.PlatformCodeMercadoLivre, "ml-1", channel.ListingStatusSynchronized)
	listing.Version = 3

	provider := &MockProvider{code: channel.PlatformCodeMercadoLivre}
	provider.On("FetchListingState", mock.Anything, mock.Anything, "ml-1").
		Return(nil, channel.ErrListingNotFound)

	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*channel.ProductListing")).
		Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	err := f.reconciler.ReconcileListing(context.Background(), provider, channel.AccessGrant{}, &listing)

	require.NoError(t, err)
	assert.Equal(t, channel.ListingStatusDisconnected, listing.SyncStatus)
	f.events.AssertExpectations(t)
}
