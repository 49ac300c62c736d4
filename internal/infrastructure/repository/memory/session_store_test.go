package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

func seed() *domain.Session {
	return &domain.Session{
		ID: "s1",
		Snapshot: domain.GroupedAssets{
			Version: 1,
			Groups:  []domain.AdGroup{{ID: "g1", AdNumber: 1, Product: "Serum"}},
		},
	}
}

func TestSessionStoreIsolatesCallers(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, seed()))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	got.Snapshot.Groups[0].Product = "changed"

	again, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Serum", again.Snapshot.Groups[0].Product)
}

func TestSessionStoreCompareAndSwap(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, seed()))

	require.NoError(t, store.Save(ctx, "s1", domain.GroupedAssets{Version: 2}, 1))

	err := store.Save(ctx, "s1", domain.GroupedAssets{Version: 2}, 1)
	assert.True(t, domain.IsKind(err, domain.ErrConflict))

	err = store.Save(ctx, "nope", domain.GroupedAssets{Version: 2}, 1)
	assert.True(t, domain.IsKind(err, domain.ErrNotFound))

	err = store.Create(ctx, seed())
	assert.True(t, domain.IsKind(err, domain.ErrConflict))
}

func TestSessionStoreSingleWinnerUnderRace(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, seed()))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Save(ctx, "s1", domain.GroupedAssets{Version: 2}, 1); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
