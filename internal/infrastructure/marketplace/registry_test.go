package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockbridge/backend/internal/domain/channel"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	meli, err := NewMercadoLivreAdapter(NewMercadoLivreConfig())
	require.NoError(t, err)
	shopee, err := NewShopeeAdapter(NewShopeeConfig(2005001, "test_partner_key"))
	require.NoError(t, err)

	registry.Register(meli)
	registry.Register(shopee)

	t.Run("resolves registered platforms", func(t *testing.T) {
		provider, err := registry.Provider(channel.PlatformCodeMercadoLivre)
		require.NoError(t, err)
		assert.Equal(t, channel.PlatformCodeMercadoLivre, provider.PlatformCode())

		provider, err = registry.Provider(channel.PlatformCodeShopee)
		require.NoError(t, err)
		assert.Equal(t, channel.PlatformCodeShopee, provider.PlatformCode())
	})

	t.Run("unknown platform", func(t *testing.T) {
		provider, err := registry.Provider(channel.PlatformCodeAmazon)
		assert.Nil(t, provider)
		assert.ErrorIs(t, err, channel.ErrPlatformNotConfigured)
	})

	t.Run("lists all providers", func(t *testing.T) {
		providers := registry.Providers()
		assert.Len(t, providers, 2)
	})
}
