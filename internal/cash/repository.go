// AngelaMos | 2026
// repository.go

package cash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Collection) error
	GetByID(ctx context.Context, id string) (*Collection, error)
	ListByEvent(ctx context.Context, eventID string) ([]Collection, error)
	Update(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const collectionColumns = `
	id, event_id, name, amount, recorded_by, collected_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Collection) error {
	query := `
		INSERT INTO collected_cash (id, event_id, name, amount, recorded_by, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.EventID,
		c.Name,
		c.Amount,
		c.RecordedBy,
		c.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collected_cash WHERE id = $1`

	var c Collection
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get collection: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	return &c, nil
}

func (r *repository) ListByEvent(
	ctx context.Context,
	eventID string,
) ([]Collection, error) {
	query := `
		SELECT ` + collectionColumns + `
		FROM collected_cash
		WHERE event_id = $1
		ORDER BY collected_at DESC`

	var out []Collection
	if err := r.db.SelectContext(ctx, &out, query, eventID); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	return out, nil
}

func (r *repository) Update(ctx context.Context, c *Collection) error {
	query := `
		UPDATE collected_cash
		SET name = $2, amount = $3, recorded_by = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.Name,
		c.Amount,
		c.RecordedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update collection: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collected_cash WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete collection: %w", core.ErrNotFound)
	}

	return nil
}
