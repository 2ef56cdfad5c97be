package pwcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/secret"
)

func TestGetCachesAfterFirstLookup(t *testing.T) {
	store := secret.NewMemory()
	require.NoError(t, store.StoreSecret("k1", "hunter2"))

	c := New(store)
	v, err := c.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	require.NoError(t, store.Remove("k1"))
	v, err = c.Get("k1")
	require.NoError(t, err, "second Get must hit the cache, not the store")
	assert.Equal(t, "hunter2", v)
}

func TestCloseZeroes(t *testing.T) {
	store := secret.NewMemory()
	require.NoError(t, store.StoreSecret("k1", "hunter2"))

	c := New(store)
	_, err := c.Get("k1")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.Empty(t, c.cache)
}
