package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
)

type invitationsRepo struct {
	q querier
}

const invitationColumns = `id, email, role, inviter_id, status, token_hash, expires_at, created_at, updated_at, accepted_at, accepted_user_id`

func scanInvitation(row interface{ Scan(...any) error }) (domain.Invitation, error) {
	var (
		inv            domain.Invitation
		role, status   string
		acceptedAt     sql.NullTime
		acceptedUserID sql.NullString
	)
	err := row.Scan(
		&inv.ID, &inv.Email, &role, &inv.InviterID, &status, &inv.TokenHash,
		&inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt, &acceptedAt, &acceptedUserID,
	)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InviteStatus(status)
	inv.AcceptedAt = mapNullTimePtr(acceptedAt)
	inv.AcceptedUserID = mapNullStringPtr(acceptedUserID)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invitations (id, email, role, inviter_id, status, token_hash, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, strings.ToLower(inv.Email), string(inv.Role), inv.InviterID,
		string(inv.Status), inv.TokenHash, inv.ExpiresAt, now, now,
	)
	return mapConflict(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token_hash = $1`, hash)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListInvitations(ctx context.Context) ([]domain.Invitation, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationsRepo) RotateInvitationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return r.guardedExec(ctx,
		`UPDATE invitations SET token_hash = $1, expires_at = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		tokenHash, expiresAt, time.Now().UTC(), id, string(domain.InvitePending))
}

func (r *invitationsRepo) TransitionStatus(ctx context.Context, id string, to domain.InviteStatus) error {
	return r.guardedExec(ctx,
		`UPDATE invitations SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4`,
		string(to), time.Now().UTC(), id, string(domain.InvitePending))
}

func (r *invitationsRepo) MarkAccepted(ctx context.Context, id, userID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invitations SET accepted_at = $1, accepted_user_id = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		at, userID, time.Now().UTC(), id, string(domain.InviteAccepted))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invitations SET status = $1, updated_at = $2
		 WHERE status = $3 AND expires_at < $4`,
		string(domain.InviteExpired), now.UTC(), string(domain.InvitePending), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// guardedExec distinguishes "no such invitation" from "invitation already
// left PENDING" so a racing caller gets the right error.
func (r *invitationsRepo) guardedExec(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
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

	id := args[len(args)-2] // id precedes the status guard
	var exists int
	err = r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitations WHERE id = $1`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return store.ErrNotFound
	}
	return store.ErrAlreadyUsed
}
