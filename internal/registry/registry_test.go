package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposter-project/assetscheme/internal/config"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(config.RegistryConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryProvider{}, provider)

	provider, err = NewProvider(config.RegistryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryProvider{}, provider)

	_, err = NewProvider(config.RegistryConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestSync(t *testing.T) {
	provider := setupInMemoryTest(t)
	require.NoError(t, provider.Register(newBrowser(7, "stale")))

	err := Sync(provider, []config.BrowserConfig{newBrowser(1, "a"), newBrowser(2, "b")})
	require.NoError(t, err)

	ids, err := provider.IDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	_, found := provider.Lookup(7)
	assert.False(t, found)
}
