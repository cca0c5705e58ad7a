package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/cache"
	"github.com/dekarrin/avail/internal/avail/splitter"
)

func TestStore_LookupMissReturnsFalse(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Lookup("_+_")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_StoreThenLookupRoundTrips(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	prog, _, err := splitter.Split("_+_")
	require.NoError(t, err)

	require.NoError(t, s.Store("_+_", prog))

	got, found, err := s.Lookup("_+_")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, prog.ArgumentCount, got.ArgumentCount)
	assert.Equal(t, prog.Instructions, got.Instructions)
}

func TestStore_StoreOverwritesExistingEntry(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	first, _, err := splitter.Split("_+_")
	require.NoError(t, err)
	require.NoError(t, s.Store("msg", first))

	second, _, err := splitter.Split("_++_")
	require.NoError(t, err)
	require.NoError(t, s.Store("msg", second))

	got, found, err := s.Lookup("msg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ArgumentCount, got.ArgumentCount)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s1, err := cache.Open(path)
	require.NoError(t, err)
	prog, _, err := splitter.Split("_+_")
	require.NoError(t, err)
	require.NoError(t, s1.Store("_+_", prog))
	require.NoError(t, s1.Close())

	s2, err := cache.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, found, err := s2.Lookup("_+_")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, prog.ArgumentCount, got.ArgumentCount)
}
