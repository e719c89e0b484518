package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
)

type recoveryTokensRepo struct {
	q querier
}

func (r *recoveryTokensRepo) CreateRecoveryToken(ctx context.Context, t domain.RecoveryToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO recovery_tokens (id, user_id, purpose, token_hash, expires_at, used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Purpose), t.TokenHash, t.ExpiresAt,
		mapOptionalTime(t.UsedAt), time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *recoveryTokensRepo) GetRecoveryTokenByHash(
	ctx context.Context,
	hash string,
	purpose domain.TokenPurpose,
) (domain.RecoveryToken, error) {
	var (
		t      domain.RecoveryToken
		p      string
		usedAt sql.NullTime
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		 FROM recovery_tokens WHERE token_hash = ? AND purpose = ?`,
		hash, string(purpose),
	).Scan(&t.ID, &t.UserID, &p, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		return domain.RecoveryToken{}, mapNotFound(err)
	}
	t.Purpose = domain.TokenPurpose(p)
	t.UsedAt = mapNullTimePtr(usedAt)
	return t, nil
}

func (r *recoveryTokensRepo) MarkRecoveryTokenUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE recovery_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM recovery_tokens WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return store.ErrNotFound
	}
	return store.ErrAlreadyUsed
}

func (r *recoveryTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM recovery_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
