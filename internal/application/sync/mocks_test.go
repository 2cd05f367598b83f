package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// MockCredentialRepository is a mock implementation of CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID, platform *channel.PlatformCode) ([]channel.Credential, error) {
	args := m.Called(ctx, sellerID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.Credential), args.Error(1)
}

func (m *MockCredentialRepository) ListSellersWithActive(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, credential *channel.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

var _ channel.CredentialRepository = (*MockCredentialRepository)(nil)

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Upsert(ctx context.Context, order *channel.CanonicalOrder) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalID(ctx context.Context, sellerID uuid.UUID, platform channel.PlatformCode, externalOrderID string) (*channel.CanonicalOrder, error) {
	args := m.Called(ctx, sellerID, platform, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.CanonicalOrder), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) ([]channel.CanonicalOrder, error) {
	args := m.Called(ctx, sellerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.CanonicalOrder), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, sellerID uuid.UUID, filter channel.OrderFilter) (int64, error) {
	args := m.Called(ctx, sellerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

var _ channel.OrderRepository = (*MockOrderRepository)(nil)

// MockListingRepository is a mock implementation of ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.ProductListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.ProductListing), args.Error(1)
}

func (m *MockListingRepository) FindByCredential(ctx context.Context, credentialID uuid.UUID) ([]channel.ProductListing, error) {
	args := m.Called(ctx, credentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.ProductListing), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, sellerID uuid.UUID, filter channel.ListingFilter) ([]channel.ProductListing, error) {
	args := m.Called(ctx, sellerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.ProductListing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, listing *channel.ProductListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

var _ channel.ListingRepository = (*MockListingRepository)(nil)

// MockSyncRunRepository is a mock implementation of SyncRunRepository
type MockSyncRunRepository struct {
	mock.Mock
}

func (m *MockSyncRunRepository) Save(ctx context.Context, run *channel.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncRunRepository) FindRecentBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]channel.SyncRun, error) {
	args := m.Called(ctx, sellerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.SyncRun), args.Error(1)
}

var _ channel.SyncRunRepository = (*MockSyncRunRepository)(nil)

// MockProvider is a mock implementation of MarketplaceProvider. The platform
// code is a plain field so registry lookups stay deterministic.
type MockProvider struct {
	mock.Mock
	code channel.PlatformCode
}

func (m *MockProvider) PlatformCode() channel.PlatformCode {
	return m.code
}

func (m *MockProvider) FetchOrdersSince(ctx context.Context, grant channel.AccessGrant, since time.Time) ([]channel.RawOrder, error) {
	args := m.Called(ctx, grant, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.RawOrder), args.Error(1)
}

func (m *MockProvider) FetchListingState(ctx context.Context, grant channel.AccessGrant, platformProductID string) (*channel.RemoteListingState, error) {
	args := m.Called(ctx, grant, platformProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.RemoteListingState), args.Error(1)
}

func (m *MockProvider) Publish(ctx context.Context, grant channel.AccessGrant, draft channel.ListingDraft) (string, error) {
	args := m.Called(ctx, grant, draft)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) MapStatus(raw string) channel.OrderStatus {
	switch raw {
	case "paid":
		return channel.OrderStatusPaid
	case "shipped":
		return channel.OrderStatusShipped
	case "cancelled":
		return channel.OrderStatusCancelled
	default:
		return channel.OrderStatusProcessing
	}
}

var _ channel.MarketplaceProvider = (*MockProvider)(nil)

// MockProviderRegistry is a mock implementation of ProviderRegistry
type MockProviderRegistry struct {
	mock.Mock
}

func (m *MockProviderRegistry) Provider(code channel.PlatformCode) (channel.MarketplaceProvider, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(channel.MarketplaceProvider), args.Error(1)
}

func (m *MockProviderRegistry) Providers() []channel.MarketplaceProvider {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]channel.MarketplaceProvider)
}

var _ channel.ProviderRegistry = (*MockProviderRegistry)(nil)

// MockSellerLocker is a mock implementation of SellerLocker
type MockSellerLocker struct {
	mock.Mock
}

func (m *MockSellerLocker) Acquire(ctx context.Context, sellerID uuid.UUID) (func(), error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

var _ SellerLocker = (*MockSellerLocker)(nil)

// MockEventPublisher records published events for assertion
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

var _ shared.EventPublisher = (*MockEventPublisher)(nil)

// MockStockReader is a mock implementation of catalog.StockReader
type MockStockReader struct {
	mock.Mock
}

func (m *MockStockReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockStockReader) StockQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ catalog.StockReader = (*MockStockReader)(nil)
