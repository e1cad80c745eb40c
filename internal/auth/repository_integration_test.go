// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/testdb"
)

func newToken(userID, familyID string) *RefreshToken {
	return &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: core.HashToken(uuid.New().String()),
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestRepositoryPostgres(t *testing.T) {
	db := testdb.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := testdb.SeedUser(t, db, "Holder")
	family := uuid.New().String()

	first := newToken(userID, family)
	require.NoError(t, repo.Create(ctx, first))

	second := newToken(userID, family)
	require.NoError(t, repo.Rotate(ctx, first.ID, second))

	used, err := repo.FindByHash(ctx, first.TokenHash)
	require.NoError(t, err)
	assert.True(t, used.IsUsed)
	require.NotNil(t, used.ReplacedByID)
	assert.Equal(t, second.ID, *used.ReplacedByID)

	t.Run("second rotation of a used token conflicts and stores nothing", func(t *testing.T) {
		orphan := newToken(userID, family)
		err := repo.Rotate(ctx, first.ID, orphan)
		require.ErrorIs(t, err, core.ErrConflict)

		_, err = repo.FindByHash(ctx, orphan.TokenHash)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("concurrent rotations have one winner", func(t *testing.T) {
		const racers = 4
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = repo.Rotate(ctx, second.ID, newToken(userID, family))
			}()
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, core.ErrConflict)
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("revoke family", func(t *testing.T) {
		require.NoError(t, repo.RevokeByFamilyID(ctx, family))

		got, err := repo.FindByHash(ctx, second.TokenHash)
		require.NoError(t, err)
		assert.True(t, got.IsRevoked())

		assert.ErrorIs(t, repo.RevokeByID(ctx, second.ID), core.ErrNotFound)
	})
}
