package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/coffee-machine/internal/coffee"
)

func TestSQLiteRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "coffee_test.db")

	s, err := NewSQLite(dbPath, "default")
	require.NoError(t, err)
	defer s.Close()

	testRoundTrip(t, s)
}

func TestSQLiteMachinesAreIsolated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "coffee_test.db")
	ctx := context.Background()

	lobby, err := NewSQLite(dbPath, "lobby")
	require.NoError(t, err)
	defer lobby.Close()
	kitchen, err := NewSQLite(dbPath, "kitchen")
	require.NoError(t, err)
	defer kitchen.Close()

	require.NoError(t, lobby.Update(ctx, coffee.BrewRecord{RequestCount: 3}))

	got, err := kitchen.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "coffee_test.db")
	ctx := context.Background()

	s, err := NewSQLite(dbPath, "default")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, coffee.BrewRecord{RequestCount: 7}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(dbPath, "default")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.RequestCount)
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s, err := NewPostgres(dsn, "test-"+t.Name())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`DELETE FROM coffee_requests WHERE machine_id = $1`, s.machineID)
	require.NoError(t, err)

	testRoundTrip(t, s)
}
