package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stundenwerk/timetrack-engine/kvstore"
	"github.com/stundenwerk/timetrack-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCategoryLookupAndCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Absent category reads as nil, not an error.
	cat, err := store.GetCategory(ctx, "timeentries")
	require.NoError(t, err)
	assert.Nil(t, cat)

	created, err := store.CreateCategory(ctx, kvstore.CategorySpec{Shorty: "timeentries", Name: "Time Entries"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotZero(t, created.ID)

	// Creating again is idempotent and keeps the id.
	again, err := store.CreateCategory(ctx, kvstore.CategorySpec{Shorty: "timeentries", Name: "Time Entries"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	found, err := store.GetCategory(ctx, "timeentries")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Time Entries", found.Name)
}

func TestValueLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, kvstore.CategorySpec{Shorty: "settings", Name: "Settings"})
	require.NoError(t, err)

	v1, err := store.CreateValue(ctx, cat.ID, `{"defaultHoursPerDay": 8}`)
	require.NoError(t, err)
	v2, err := store.CreateValue(ctx, cat.ID, `{"defaultHoursPerDay": 7}`)
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID, v2.ID)

	// Insertion order is preserved.
	values, err := store.Values(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, v1.ID, values[0].ID)
	assert.Equal(t, `{"defaultHoursPerDay": 8}`, values[0].Payload)

	require.NoError(t, store.UpdateValue(ctx, cat.ID, v1.ID, `{"defaultHoursPerDay": 6}`))
	values, err = store.Values(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"defaultHoursPerDay": 6}`, values[0].Payload)

	require.NoError(t, store.DeleteValue(ctx, cat.ID, v1.ID))
	values, err = store.Values(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, v2.ID, values[0].ID)
}

func TestValueMutations_MissTheWrongCategory(t *testing.T) {
	// Value ids are scoped to their category: touching a value through the
	// wrong category id must miss rather than mutate.

	store := newTestStore(t)
	ctx := context.Background()

	catA, err := store.CreateCategory(ctx, kvstore.CategorySpec{Shorty: "a", Name: "A"})
	require.NoError(t, err)
	catB, err := store.CreateCategory(ctx, kvstore.CategorySpec{Shorty: "b", Name: "B"})
	require.NoError(t, err)

	v, err := store.CreateValue(ctx, catA.ID, `{}`)
	require.NoError(t, err)

	assert.ErrorIs(t, store.UpdateValue(ctx, catB.ID, v.ID, `{"x":1}`), kvstore.ErrValueMissing)
	assert.ErrorIs(t, store.DeleteValue(ctx, catB.ID, v.ID), kvstore.ErrValueMissing)
	assert.ErrorIs(t, store.UpdateValue(ctx, catA.ID, 9999, `{}`), kvstore.ErrValueMissing)
}
