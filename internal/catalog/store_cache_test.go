package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCacheTTL = time.Minute

// interleavingStore runs `after` once, right after the wrapped FindByID has
// read its row and before the caller sees it.
type interleavingStore struct {
	*MemStore
	after func()
}

func (s *interleavingStore) FindByID(ctx context.Context, id int64) (BoardGame, bool, error) {
	g, ok, err := s.MemStore.FindByID(ctx, id)
	if fn := s.after; fn != nil {
		s.after = nil
		fn()
	}
	return g, ok, err
}

type cacheFixture struct {
	mr    *miniredis.Miniredis
	inner *interleavingStore
	store *CachedStore
	svc   *Service
}

func newCacheFixture(t *testing.T) *cacheFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &interleavingStore{MemStore: NewMemStore()}
	store := NewCachedStore(inner, rdb, testCacheTTL, zap.NewNop())
	return &cacheFixture{
		mr:    mr,
		inner: inner,
		store: store,
		svc:   NewService(store, zap.NewNop()),
	}
}

func TestCachedStoreWritesThrough(t *testing.T) {
	f := newCacheFixture(t)
	ctx := context.Background()

	g, err := f.svc.Create(ctx, catan())
	require.NoError(t, err)
	assert.True(t, f.mr.Exists(cacheKey(g.ID)))

	reads := 0
	f.inner.after = func() { reads++ }
	got, ok, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Catan", got.Name)
	assert.Zero(t, reads, "served from cache")

	updated, _, err := f.svc.Update(ctx, g.ID, Patch{Description: Some("Edited")})
	require.NoError(t, err)

	got, _, err = f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Description)
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)
}

func TestCachedStoreReadRacingUpdateKeepsNewerRow(t *testing.T) {
	f := newCacheFixture(t)
	ctx := context.Background()

	g, err := f.svc.Create(ctx, catan())
	require.NoError(t, err)
	f.mr.Del(cacheKey(g.ID))

	f.inner.after = func() {
		_, ok, err := f.svc.Update(ctx, g.ID, Patch{Description: Some("v2")})
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)

	updated, ok, err := f.svc.Update(ctx, g.ID, Patch{MinPlayers: Some(2)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", updated.Description)
	assert.Equal(t, 2, *updated.MinPlayers)

	got, _, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Description)
	assert.Equal(t, 2, *got.MinPlayers)
}

func TestCachedStoreReadRacingDeleteStaysGone(t *testing.T) {
	f := newCacheFixture(t)
	ctx := context.Background()

	g, err := f.svc.Create(ctx, catan())
	require.NoError(t, err)
	f.mr.Del(cacheKey(g.ID))

	f.inner.after = func() {
		deleted, err := f.svc.Delete(ctx, g.ID)
		require.NoError(t, err)
		require.True(t, deleted)
	}
	_, _, err = f.svc.Get(ctx, g.ID)
	require.NoError(t, err)

	_, found, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, found)

	exists, err := f.store.ExistsByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCachedStoreRedisFailureDoesNotLoseUpdates(t *testing.T) {
	f := newCacheFixture(t)
	ctx := context.Background()

	g, err := f.svc.Create(ctx, catan())
	require.NoError(t, err)

	f.mr.SetError("ERR injected failure")
	_, ok, err := f.svc.Update(ctx, g.ID, Patch{Description: Some("v2")})
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got.Description)
	f.mr.SetError("")

	// The refresh failed, so the cache still holds the created row.
	updated, ok, err := f.svc.Update(ctx, g.ID, Patch{MinPlayers: Some(2)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", updated.Description)

	got, _, err = f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Description)
	assert.Equal(t, 2, *got.MinPlayers)
}

func TestCachedStoreDropsCorruptEntry(t *testing.T) {
	f := newCacheFixture(t)
	ctx := context.Background()

	g, err := f.svc.Create(ctx, catan())
	require.NoError(t, err)
	f.mr.HSet(cacheKey(g.ID), fieldData, "{not json")

	got, ok, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Catan", got.Name)
}

func TestCachedStoreSurvivesRedisOutage(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewCachedStore(NewMemStore(), rdb, time.Minute, zap.NewNop())
	ctx := context.Background()

	g, err := s.Save(ctx, catan())
	require.NoError(t, err)

	got, ok, err := s.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, g.ID, got.ID)

	assert.NoError(t, s.Ping(ctx))
}
