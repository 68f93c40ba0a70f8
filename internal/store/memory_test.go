package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/coffee-machine/internal/coffee"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	testRoundTrip(t, NewMemoryStore("default"))
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore("default")
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, coffee.BrewRecord{RequestCount: 2, LastRequestDate: time.Now()}))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	got.RequestCount = 99

	again, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.RequestCount)
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	s := NewMemoryStore("default")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Update(ctx, coffee.BrewRecord{}), context.Canceled)
}
