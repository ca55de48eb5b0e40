package gamesclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameShelf/internal/catalog"
	"GameShelf/pkg/gamesclient"
)

func newClient(t *testing.T) *gamesclient.Client {
	t.Helper()

	s := &catalog.Server{Service: catalog.NewService(catalog.NewMemStore(), zap.NewNop())}
	ts := httptest.NewServer(catalog.NewHandler(s, catalog.HTTPDeps{Log: zap.NewNop(), Service: "catalog"}))
	t.Cleanup(ts.Close)

	return gamesclient.New(ts.URL + "/")
}

func TestClientCRUD(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	created, err := c.Create(ctx, catalog.Draft{Name: "Catan", Description: "Trade and build"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	byName, err := c.GetByName(ctx, "Catan")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	updated, err := c.Update(ctx, created.ID, catalog.Patch{MinPlayers: catalog.Some(3)})
	require.NoError(t, err)
	require.NotNil(t, updated.MinPlayers)
	assert.Equal(t, 3, *updated.MinPlayers)
	assert.Equal(t, "Trade and build", updated.Description)

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := c.Search(ctx, "a&b")
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.ErrorIs(t, c.Delete(ctx, created.ID), gamesclient.ErrNotFound)
}

func TestClientErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Create(ctx, catalog.Draft{Name: "Catan", Description: "x"})
	require.NoError(t, err)

	_, err = c.Create(ctx, catalog.Draft{Name: "Catan", Description: "x"})
	assert.ErrorIs(t, err, gamesclient.ErrDuplicateName)

	_, err = c.Create(ctx, catalog.Draft{Name: "", Description: "x"})
	require.ErrorIs(t, err, gamesclient.ErrInvalid)
	var apiErr *gamesclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Game name is required", apiErr.Fields()["name"])

	_, err = c.Get(ctx, 404)
	assert.ErrorIs(t, err, gamesclient.ErrNotFound)
	assert.NotErrorIs(t, err, gamesclient.ErrDuplicateName)
}

func TestClientUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := gamesclient.New(url).List(context.Background())
	assert.ErrorIs(t, err, gamesclient.ErrUnavailable)
}
