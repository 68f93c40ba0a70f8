package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/coffee-machine/internal/coffee"
)

// testRoundTrip checks the behaviour every backend shares: empty first, then
// the last Update wins.
func testRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	first := coffee.BrewRecord{RequestCount: 1, LastRequestDate: time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Update(ctx, first))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.RequestCount)
	assert.True(t, got.LastRequestDate.Equal(first.LastRequestDate))

	second := coffee.BrewRecord{RequestCount: 5, LastRequestDate: first.LastRequestDate.AddDate(0, 0, 1)}
	require.NoError(t, s.Update(ctx, second))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.RequestCount)
	assert.True(t, got.LastRequestDate.Equal(second.LastRequestDate))
}
