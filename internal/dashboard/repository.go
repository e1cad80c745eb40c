// AngelaMos | 2026
// repository.go

package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

// Repository is the read side over expenses and collected cash. Totals and
// recent activity leave out soft-deleted expenses.
type Repository interface {
	TotalCollected(ctx context.Context, eventID string) (decimal.Decimal, error)
	TotalExpensed(ctx context.Context, eventID string) (decimal.Decimal, error)
	RecentExpenses(ctx context.Context, eventID string, limit int) ([]Activity, error)
	RecentCollections(ctx context.Context, eventID string, limit int) ([]Activity, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) TotalCollected(
	ctx context.Context,
	eventID string,
) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM collected_cash
		WHERE event_id = $1`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, eventID); err != nil {
		return decimal.Zero, fmt.Errorf("total collected: %w", err)
	}
	return total, nil
}

func (r *repository) TotalExpensed(
	ctx context.Context,
	eventID string,
) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE event_id = $1 AND is_deleted = false`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, eventID); err != nil {
		return decimal.Zero, fmt.Errorf("total expensed: %w", err)
	}
	return total, nil
}

func (r *repository) RecentExpenses(
	ctx context.Context,
	eventID string,
	limit int,
) ([]Activity, error) {
	query := `
		SELECT id, name AS label, amount, created_at AS date
		FROM expenses
		WHERE event_id = $1 AND is_deleted = false
		ORDER BY created_at DESC
		LIMIT $2`

	var out []Activity
	if err := r.db.SelectContext(ctx, &out, query, eventID, limit); err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	return out, nil
}

func (r *repository) RecentCollections(
	ctx context.Context,
	eventID string,
	limit int,
) ([]Activity, error) {
	query := `
		SELECT id, name AS label, amount, collected_at AS date
		FROM collected_cash
		WHERE event_id = $1
		ORDER BY collected_at DESC
		LIMIT $2`

	var out []Activity
	if err := r.db.SelectContext(ctx, &out, query, eventID, limit); err != nil {
		return nil, fmt.Errorf("recent collections: %w", err)
	}
	return out, nil
}
