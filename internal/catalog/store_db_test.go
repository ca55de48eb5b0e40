package catalog

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameShelf/pkg/kit"
)

func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := kit.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewPostgresStore(db)
	require.NoError(t, s.EnsureSchema(ctx))
	_, err = db.ExecContext(ctx, `TRUNCATE board_games RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	g, err := s.Save(ctx, catan())
	require.NoError(t, err)
	require.NotZero(t, g.ID)
	assert.Equal(t, g.CreatedAt, g.UpdatedAt)

	got, ok, err := s.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Catan", got.Name)
	assert.Equal(t, 4, *got.MaxPlayers)

	noCounts, err := s.Save(ctx, BoardGame{Name: "Mystery", Description: "No counts"})
	require.NoError(t, err)
	assert.Nil(t, noCounts.MinPlayers)

	got.Description = "Edited"
	edited, err := s.Save(ctx, got)
	require.NoError(t, err)
	assert.True(t, edited.CreatedAt.Equal(g.CreatedAt))
	assert.True(t, edited.UpdatedAt.After(g.UpdatedAt))

	byName, ok, err := s.FindByName(ctx, "Catan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, g.ID, byName.ID)

	found, err := s.FindByKeyword(ctx, "EDIT")
	require.NoError(t, err)
	require.Len(t, found, 1)

	players, err := s.FindByPlayerCount(ctx, 3)
	require.NoError(t, err)
	require.Len(t, players, 1)

	require.NoError(t, s.DeleteByID(ctx, g.ID))
	exists, err := s.ExistsByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Save(ctx, got)
	assert.ErrorIs(t, err, ErrGameMissing)
}

func TestPostgresStoreUniqueName(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, catan())
	require.NoError(t, err)

	_, err = s.Save(ctx, catan())
	assert.ErrorIs(t, err, ErrNameConflict)
}

func TestPostgresConcurrentCreatesYieldOneWinner(t *testing.T) {
	svc := NewService(newTestPostgresStore(t), zap.NewNop())
	ctx := context.Background()

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, catan()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrDuplicateName)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
