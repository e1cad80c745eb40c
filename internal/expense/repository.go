// AngelaMos | 2026
// repository.go

package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

type Repository interface {
	Create(ctx context.Context, expense *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	ListByEvent(ctx context.Context, eventID string, deleted bool) ([]*Expense, error)
	Save(ctx context.Context, expense *Expense) error
	SetDeleted(ctx context.Context, id string, version int, deleted bool) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type expenseRow struct {
	ID            string          `db:"id"`
	EventID       string          `db:"event_id"`
	PaidBy        string          `db:"paid_by"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Amount        decimal.Decimal `db:"amount"`
	Payments      Payments        `db:"payments"`
	AdvancePaid   decimal.Decimal `db:"advance_paid"`
	PendingAmount decimal.Decimal `db:"pending_amount"`
	PaymentStatus string          `db:"payment_status"`
	IsDeleted     bool            `db:"is_deleted"`
	Version       int             `db:"version"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// toExpense rebuilds derived fields from the stored payments rather than
// trusting the denormalized columns.
func (row *expenseRow) toExpense() *Expense {
	e := &Expense{
		ID:        row.ID,
		EventID:   row.EventID,
		PaidBy:    row.PaidBy,
		Name:      row.Name,
		Category:  row.Category,
		IsDeleted: row.IsDeleted,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		amount:    row.Amount,
		payments:  row.Payments,
	}
	e.recompute()
	return e
}

const expenseColumns = `
	id, event_id, paid_by, name, category, amount, payments, advance_paid,
	pending_amount, payment_status, is_deleted, version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, expense *Expense) error {
	query := `
		INSERT INTO expenses (
			id, event_id, paid_by, name, category, amount, payments,
			advance_paid, pending_amount, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING version, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		expense.ID,
		expense.EventID,
		expense.PaidBy,
		expense.Name,
		expense.Category,
		expense.amount,
		expense.payments,
		expense.advancePaid,
		expense.pendingAmount,
		string(expense.status),
	)
	err := row.Scan(&expense.Version, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	return nil
}

// GetByID returns the expense whether or not it is soft-deleted.
func (r *repository) GetByID(ctx context.Context, id string) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	var row expenseRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get expense: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	return row.toExpense(), nil
}

func (r *repository) ListByEvent(
	ctx context.Context,
	eventID string,
	deleted bool,
) ([]*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE event_id = $1 AND is_deleted = $2
		ORDER BY created_at DESC`

	var rows []expenseRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID, deleted); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	out := make([]*Expense, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toExpense())
	}
	return out, nil
}

// Save writes metadata, payments and derived fields in one statement,
// guarded by the version the expense was loaded at. A concurrent writer
// that got there first yields core.ErrConflict.
func (r *repository) Save(ctx context.Context, expense *Expense) error {
	query := `
		UPDATE expenses
		SET name = $3, category = $4, amount = $5, payments = $6,
		    advance_paid = $7, pending_amount = $8, payment_status = $9,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND is_deleted = false
		RETURNING version, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		expense.ID,
		expense.Version,
		expense.Name,
		expense.Category,
		expense.amount,
		expense.payments,
		expense.advancePaid,
		expense.pendingAmount,
		string(expense.status),
	)
	err := row.Scan(&expense.Version, &expense.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save expense: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("save expense: %w", err)
	}

	return nil
}

// SetDeleted flips the soft-delete flag of the expense at the given
// version. A stale version is core.ErrConflict.
func (r *repository) SetDeleted(ctx context.Context, id string, version int, deleted bool) error {
	query := `
		UPDATE expenses
		SET is_deleted = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2`

	result, err := r.db.ExecContext(ctx, query, id, version, deleted)
	if err != nil {
		return fmt.Errorf("set expense deleted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set expense deleted: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set expense deleted: %w", core.ErrConflict)
	}

	return nil
}
