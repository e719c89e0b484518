package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/cryptox"
	"github.com/keyhaven/backoffice/pkg/idx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the very first administrator. Every other user
// arrives through an invitation, so a fresh deployment needs exactly one
// out-of-band path. Once any user exists the path closes for good.
type BootstrapService struct {
	Store store.Store
	Token string // pre-configured bootstrap token; empty disables the check
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the first ADMIN user. The users-table-empty check and
// the insert run in one transaction, so two racing bootstrap calls cannot
// both succeed.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token, email, password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if s.Token != "" && token != s.Token {
		log.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash bootstrap password", slog.Any("error", err))
		return domain.User{}, err
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: passHash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		return tx.Users().CreateUser(ctx, admin)
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) || errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("attempted bootstrap on already-bootstrapped system")
			return domain.User{}, ErrBootstrapAlready
		}
		log.Error("failed to bootstrap admin", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("system bootstrapped",
		slog.String("admin_user_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return admin, nil
}
