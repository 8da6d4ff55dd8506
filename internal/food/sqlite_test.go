package food

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvoice/internal/nlu"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "foods.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreResolveExact(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFood("Toast", 120, "piece")
	require.NoError(t, err)

	est, err := s.Resolve(context.Background(), "toast", 2, nlu.UnitServings)
	require.NoError(t, err)
	assert.Equal(t, 240.0, est.Calories)
	assert.False(t, est.Fuzzy)
}

func TestStoreResolveAliasAndPrefix(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFood("chicken breast", 1.65, "g", "chicken")
	require.NoError(t, err)

	// Alias hit counts as exact.
	est, err := s.Resolve(context.Background(), "chicken", 100, nlu.UnitGrams)
	require.NoError(t, err)
	assert.InDelta(t, 165, est.Calories, 0.001)
	assert.False(t, est.Fuzzy)

	// Prefix hit is a fuzzy match.
	est, err = s.Resolve(context.Background(), "chicken b", 100, nlu.UnitGrams)
	require.NoError(t, err)
	assert.Equal(t, "chicken breast", est.Name)
	assert.True(t, est.Fuzzy)
}

func TestStoreResolveVolume(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFood("milk", 0.64, "ml")
	require.NoError(t, err)

	est, err := s.Resolve(context.Background(), "milk", 1, nlu.UnitCups)
	require.NoError(t, err)
	assert.InDelta(t, 151.4, est.Calories, 0.1)
}

func TestStoreResolveNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Resolve(context.Background(), "unobtainium", 1, nlu.UnitServings)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreResolveUnitMismatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFood("toast", 120, "piece")
	require.NoError(t, err)

	_, err = s.Resolve(context.Background(), "toast", 100, nlu.UnitGrams)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
