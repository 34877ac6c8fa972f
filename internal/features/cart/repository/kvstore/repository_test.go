package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottery-miniapp-backend/internal/features/cart/models"
	"lottery-miniapp-backend/internal/features/cart/repository"
	"lottery-miniapp-backend/internal/platform/kv"
)

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := NewRepository(store, "cart:1")

	added := time.Date(2026, 3, 1, 12, 30, 45, 123000000, time.UTC)
	in := []models.CartTicket{
		{ID: "b", Numbers: []int{1, 2, 3, 4, 5}, AddedAt: added},
		{ID: "a", Numbers: []int{6, 7, 8, 9, 10}, AddedAt: added.Add(time.Minute)},
	}
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Numbers, out[i].Numbers)
		assert.True(t, in[i].AddedAt.Equal(out[i].AddedAt))
	}
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := NewRepository(kv.NewMemoryStore(), "cart:1")
	out, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRepository_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "cart:1", `{"not":"a list"`))

	_, err := NewRepository(store, "cart:1").Load(ctx)
	assert.ErrorIs(t, err, repository.ErrCorrupt)
}

func TestRepository_SaveEmpty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, NewRepository(store, "cart:1").Save(ctx, nil))

	raw, ok, _ := store.Get(ctx, "cart:1")
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestRepository_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := NewRepository(store, "cart:1")
	b := NewRepository(store, "cart:2")

	require.NoError(t, a.Save(ctx, []models.CartTicket{{ID: "x", Numbers: []int{1}}}))
	out, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}
