package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestMemStore() *MemStore {
	s := NewMemStore()
	s.cost = bcrypt.MinCost
	return s
}

func TestMemStoreCreateAndVerify(t *testing.T) {
	ctx := context.Background()
	s := newTestMemStore()

	require.NoError(t, s.Create(ctx, " Ann@Example.com ", "password1", RoleCurator, "u_1"))

	u, err := s.Verify(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "u_1", u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.Verify(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Verify(ctx, "bob@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMemStoreRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestMemStore()

	require.NoError(t, s.Create(ctx, "ann@example.com", "password1", RoleCurator, "u_1"))
	err := s.Create(ctx, "ANN@example.com", "password2", RoleCurator, "u_2")
	assert.ErrorIs(t, err, ErrEmailExists)
}
