package registry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) *RedisProvider {
	// Skip if Redis is not available
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("Skipping Redis tests: REDIS_ADDR not set")
	}

	provider := &RedisProvider{Addr: redisAddr, Key: "assetscheme:test:browsers"}
	require.NoError(t, provider.InitRegistry())

	// Clear test data
	provider.client.Del(provider.ctx, provider.Key)
	return provider
}

func TestRedisProvider(t *testing.T) {
	provider := setupRedisTest(t)

	t.Run("RegisterAndLookup", func(t *testing.T) {
		require.NoError(t, provider.Register(newBrowser(1, "widget")))
		cfg, found := provider.Lookup(1)
		require.True(t, found)
		assert.Equal(t, "widget", cfg.Name)
		assert.Equal(t, "file:///sources/widget/index.html", cfg.Source.URL)
	})

	t.Run("LookupUnknown", func(t *testing.T) {
		_, found := provider.Lookup(99)
		assert.False(t, found)
	})

	t.Run("IDsAndUnregister", func(t *testing.T) {
		require.NoError(t, provider.Register(newBrowser(2, "b")))
		ids, err := provider.IDs()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, ids)

		require.NoError(t, provider.Unregister(1))
		_, found := provider.Lookup(1)
		assert.False(t, found)
	})
}
