package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", Guest{ID: "g", Name: "Guest_g"}, time.Minute))

	identity, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, Guest{ID: "g", Name: "Guest_g"}, identity)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", Registered{AccountID: 3, Username: "c"}, 0))
	require.NoError(t, store.Delete(ctx, "sid"))
	require.NoError(t, store.Delete(ctx, "sid"))

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetIdentityRotation(t *testing.T) {
	s := Restore("sid", Registered{AccountID: 1, Username: "old"})

	s.SetIdentity(Registered{AccountID: 1, Username: "new"})
	assert.True(t, s.Dirty())
	assert.False(t, s.rotate)

	s.SetIdentity(Registered{AccountID: 2, Username: "other"})
	assert.True(t, s.rotate)
}

func TestIdentityAccessors(t *testing.T) {
	var id Identity = Guest{ID: "abc", Name: "Guest_abc"}
	assert.True(t, id.IsGuest())
	assert.Equal(t, "abc", id.UserID())

	id = Registered{AccountID: 9, Username: "neo"}
	assert.False(t, id.IsGuest())
	assert.Equal(t, uint(9), id.UserID())
	assert.Equal(t, "neo", id.DisplayName())
}
