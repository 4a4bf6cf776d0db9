package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	type payload struct {
		Items []string `json:"items"`
	}

	t.Run("missing key is not an error", func(t *testing.T) {
		var p payload
		found, err := store.GetJSON(ctx, "absent", &p)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("round-trips JSON values", func(t *testing.T) {
		require.NoError(t, store.SetJSON(ctx, "k", payload{Items: []string{"a", "b"}}, time.Minute))

		var p payload
		found, err := store.GetJSON(ctx, "k", &p)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"a", "b"}, p.Items)
	})

	t.Run("expires keys after their ttl", func(t *testing.T) {
		require.NoError(t, store.SetJSON(ctx, "short", payload{}, time.Second))
		now = now.Add(2 * time.Second)

		var p payload
		found, err := store.GetJSON(ctx, "short", &p)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("deletes keys", func(t *testing.T) {
		require.NoError(t, store.SetJSON(ctx, "gone", payload{}, 0))
		require.NoError(t, store.Del(ctx, "gone"))

		var p payload
		found, _ := store.GetJSON(ctx, "gone", &p)
		assert.False(t, found)
	})
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentials(NewMemoryStore())
	expires := time.Now().Add(time.Hour)

	buyer := Credential{Token: "buyer-token", Kind: "buyer", PrincipalID: "b1", ExpiresAt: expires}
	seller := Credential{Token: "seller-token", Kind: "seller", PrincipalID: "s1", ExpiresAt: expires}

	require.NoError(t, creds.Set(ctx, "sess", buyer))
	require.NoError(t, creds.Set(ctx, "sess", seller))

	got, err := creds.Get(ctx, "sess", "buyer")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "buyer-token", got.Token)

	t.Run("slots are per kind", func(t *testing.T) {
		require.NoError(t, creds.Clear(ctx, "sess", "buyer"))

		got, err := creds.Get(ctx, "sess", "buyer")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = creds.Get(ctx, "sess", "seller")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "seller-token", got.Token)
	})

	t.Run("slots are per session", func(t *testing.T) {
		got, err := creds.Get(ctx, "other-session", "seller")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("refuses an already expired credential", func(t *testing.T) {
		stale := buyer
		stale.ExpiresAt = time.Now().Add(-time.Minute)
		assert.Error(t, creds.Set(ctx, "sess", stale))
	})
}
