package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/errors"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func testSighting(owner string) *Sighting {
	return &Sighting{
		Name:       "Blue Jay",
		Species:    "Cyanocitta cristata",
		Region:     "Vermont",
		ImageName:  "blob-1.jpg",
		ObservedAt: time.Now(),
		Source:     SourceUserProvided,
		Owner:      owner,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	s := testSighting("alice")
	require.NoError(t, store.Save(s))
	require.NotZero(t, s.ID)

	got, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Jay", got.Name)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "/api/images/blob-1.jpg", got.ImageURL)
	assert.False(t, got.AIIdentified)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("42")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))

	_, err = store.Get("not-a-number")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestSaveValidation(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		mutate func(*Sighting)
	}{
		{"missing name", func(s *Sighting) { s.Name = "" }},
		{"missing species", func(s *Sighting) { s.Species = "" }},
		{"missing region", func(s *Sighting) { s.Region = "" }},
		{"missing image", func(s *Sighting) { s.ImageName = "" }},
		{"missing owner", func(s *Sighting) { s.Owner = "" }},
		{"user-provided with confidence", func(s *Sighting) {
			c := 0.9
			s.Confidence = &c
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testSighting("alice")
			tc.mutate(s)
			err := store.Save(s)
			require.Error(t, err)
			assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
		})
	}
}

func TestOwnerScoping(t *testing.T) {
	store := newTestStore(t)

	alice := testSighting("alice")
	require.NoError(t, store.Save(alice))

	bob := testSighting("bob")
	bob.Name = "Crow"
	bob.Species = "Corvus brachyrhynchos"
	require.NoError(t, store.Save(bob))

	got, err := store.GetByOwner("alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Owner)

	// Region and species filters never leak other owners' rows, even when
	// the filter value matches.
	got, err = store.GetByRegion("alice", "Vermont")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Owner)

	got, err = store.GetBySpecies("bob", "Cyanocitta cristata")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.GetByOwner("nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListOrderNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := testSighting("alice")
	older.Name = "Older"
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(older))

	newer := testSighting("alice")
	newer.Name = "Newer"
	newer.CreatedAt = time.Now()
	require.NoError(t, store.Save(newer))

	got, err := store.GetByOwner("alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Newer", got[0].Name)
	assert.Equal(t, "Older", got[1].Name)
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)

	jay := testSighting("alice")
	require.NoError(t, store.Save(jay))

	crow := testSighting("alice")
	crow.Name = "Crow"
	crow.Species = "Corvus brachyrhynchos"
	crow.Description = "Spotted near the old oak"
	require.NoError(t, store.Save(crow))

	// Case-insensitive match on name.
	got, err := store.Search("alice", "blue")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blue Jay", got[0].Name)

	// Match on description as well.
	got, err = store.Search("alice", "OAK")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Crow", got[0].Name)

	// Scoped to the owner.
	got, err = store.Search("bob", "blue")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Empty query returns everything the owner has.
	got, err = store.Search("alice", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAIInferredVirtualFields(t *testing.T) {
	store := newTestStore(t)

	s := testSighting("alice")
	s.Source = SourceAIInferred
	c := 0.87
	s.Confidence = &c
	require.NoError(t, store.Save(s))

	got, err := store.GetByOwner("alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].AIIdentified)
	require.NotNil(t, got[0].Confidence)
	assert.InDelta(t, 0.87, *got[0].Confidence, 0.0001)
}
