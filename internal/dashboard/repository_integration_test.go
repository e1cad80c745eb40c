// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/cash"
	"github.com/carterperez-dev/solution-ledger/internal/testdb"
)

func TestRepositoryPostgres(t *testing.T) {
	db := testdb.Start(t)
	repo := NewRepository(db)
	collections := cash.NewRepository(db)
	ctx := context.Background()

	owner := testdb.SeedUser(t, db, "Owner")
	eventID := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO events (id, name, year, owner_id) VALUES ($1, 'Fest', 2025, $2)`,
		eventID, owner,
	)
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i, amount := range []string{"6000", "4000"} {
		require.NoError(t, collections.Create(ctx, &cash.Collection{
			ID:          uuid.New().String(),
			EventID:     eventID,
			Name:        "Donor",
			Amount:      decimal.RequireFromString(amount),
			RecordedBy:  owner,
			CollectedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	insertExpense := func(name, amount string, deleted bool) {
		_, err := db.Exec(`
			INSERT INTO expenses (id, event_id, paid_by, name, category, amount, pending_amount, is_deleted)
			VALUES ($1, $2, $3, $4, 'misc', $5, $5, $6)`,
			uuid.New().String(), eventID, owner, name, amount, deleted,
		)
		require.NoError(t, err)
	}
	insertExpense("Lights", "1500", false)
	insertExpense("Sound", "1000", false)
	insertExpense("Cancelled", "999", true)

	collected, err := repo.TotalCollected(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.RequireFromString("10000")), collected.String())

	expensed, err := repo.TotalExpensed(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, expensed.Equal(decimal.RequireFromString("2500")), expensed.String())
	assert.Equal(t, int64(25), PercentSpent(collected, expensed))

	recent, err := repo.RecentExpenses(ctx, eventID, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	recentCash, err := repo.RecentCollections(ctx, eventID, 1)
	require.NoError(t, err)
	require.Len(t, recentCash, 1)
	assert.True(t, recentCash[0].Amount.Equal(decimal.RequireFromString("4000")), "newest first")

	empty, err := repo.TotalCollected(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
