// AngelaMos | 2026
// repository.go

package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListAccessible(ctx context.Context, userID string) ([]Event, error)
	ListDeleted(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, event *Event) error
	SetDeleted(
		ctx context.Context,
		id string,
		deletedAt *time.Time,
		updatedBy string,
	) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const eventColumns = `
	id, name, year, description, owner_id, shared_with, is_deleted,
	deleted_at, updated_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (id, name, year, description, owner_id, shared_with)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, event, query,
		event.ID,
		event.Name,
		event.Year,
		event.Description,
		event.OwnerID,
		event.SharedWith,
	)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	return nil
}

// GetByID returns the event whether or not it is soft-deleted.
func (r *repository) GetByID(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event Event
	err := r.db.GetContext(ctx, &event, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get event: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	return &event, nil
}

func (r *repository) ListAccessible(
	ctx context.Context,
	userID string,
) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_deleted = false
		  AND (
			owner_id = $1
			OR shared_with @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		  )
		ORDER BY year DESC, created_at DESC`

	var events []Event
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list accessible events: %w", err)
	}

	return events, nil
}

func (r *repository) ListDeleted(ctx context.Context) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_deleted = true
		ORDER BY deleted_at DESC NULLS LAST`

	var events []Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list deleted events: %w", err)
	}

	return events, nil
}

func (r *repository) Update(ctx context.Context, event *Event) error {
	query := `
		UPDATE events
		SET name = $2, year = $3, description = $4, shared_with = $5,
		    updated_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &event.UpdatedAt, query,
		event.ID,
		event.Name,
		event.Year,
		event.Description,
		event.SharedWith,
		event.UpdatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update event: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	return nil
}

// SetDeleted marks the event deleted when deletedAt is set and restores it
// when deletedAt is nil.
func (r *repository) SetDeleted(
	ctx context.Context,
	id string,
	deletedAt *time.Time,
	updatedBy string,
) error {
	query := `
		UPDATE events
		SET is_deleted = $2, deleted_at = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		deletedAt != nil,
		deletedAt,
		updatedBy,
	)
	if err != nil {
		return fmt.Errorf("set event deleted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set event deleted: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set event deleted: %w", core.ErrNotFound)
	}

	return nil
}
