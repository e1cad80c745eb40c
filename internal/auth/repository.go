// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

// Repository stores refresh tokens by hash. Rotate is the only path that
// retires a token in favour of its successor.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Rotate(ctx context.Context, usedID string, next *RefreshToken) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const insertRefreshToken = `
	INSERT INTO refresh_tokens (
		id, user_id, token_hash, family_id, expires_at, user_agent, ip_address
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at`

func insertToken(ctx context.Context, db core.DBTX, t *RefreshToken) error {
	return db.GetContext(ctx, &t.CreatedAt, insertRefreshToken,
		t.ID, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt, t.UserAgent, t.IPAddress,
	)
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	if err := insertToken(ctx, r.db, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, family_id, expires_at, created_at,
		       is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// Rotate stores next and retires usedID in one transaction. The retiring
// update only matches a live, unused token, so of two concurrent rotations
// one commits and the other rolls back with ErrConflict, leaving no orphan
// successor behind.
func (r *repository) Rotate(
	ctx context.Context,
	usedID string,
	next *RefreshToken,
) error {
	retire := `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false AND revoked_at IS NULL`

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertToken(ctx, tx, next); err != nil {
			return err
		}
		return expectOneRow(tx.ExecContext(ctx, retire, usedID, next.ID))(core.ErrConflict)
	})
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	if err := expectOneRow(r.db.ExecContext(ctx, query, id))(core.ErrNotFound); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}
	return nil
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}
	return nil
}

// expectOneRow turns an Exec result into an error: the Exec error if any,
// otherwise missing when no row matched.
func expectOneRow(result sql.Result, err error) func(missing error) error {
	return func(missing error) error {
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return missing
		}
		return nil
	}
}
