package marketplace

import (
	"fmt"
	"sync"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// Registry is the concrete ProviderRegistry holding the configured platform
// adapters. Registration happens at startup; lookups are concurrent-safe.
type Registry struct {
	mu        sync.RWMutex
	providers map[channel.PlatformCode]channel.MarketplaceProvider
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[channel.PlatformCode]channel.MarketplaceProvider),
	}
}

// Register adds a platform adapter, replacing any previous one for the code
func (r *Registry) Register(provider channel.MarketplaceProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.PlatformCode()] = provider
}

// Provider returns the adapter for the given platform code
func (r *Registry) Provider(code channel.PlatformCode) (channel.MarketplaceProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", channel.ErrPlatformNotConfigured, code)
	}
	return provider, nil
}

// Providers returns all registered adapters
func (r *Registry) Providers() []channel.MarketplaceProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]channel.MarketplaceProvider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// Ensure Registry implements ProviderRegistry
var _ channel.ProviderRegistry = (*Registry)(nil)
