package implementation_test

import (
	"context"
	"testing"

	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/implementation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreditWalletRepository_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewCreditWalletRepository(testdb.New(t))
	owner := uuid.New()

	created, err := repo.Ensure(ctx, owner)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Ensure(ctx, owner)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.AddBalance(ctx, owner, 7))
	require.NoError(t, repo.AddBalance(ctx, owner, -2))

	w, err := repo.FindByUserForUpdate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Balance)
}

func TestCreditWalletRepository_AddBalanceWithoutWallet(t *testing.T) {
	repo := implementation.NewCreditWalletRepository(testdb.New(t))

	err := repo.AddBalance(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	w, err := repo.FindByUser(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, w)
}
