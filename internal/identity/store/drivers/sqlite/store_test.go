package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(FileDSN(filepath.Join(t.TempDir(), "identity.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// The DSN parameters must reach every pooled connection; modernc ignores
// mattn-style `_busy_timeout`/`_journal_mode` keys without complaint, so
// read the effective values back instead of trusting the DSN.
func TestFileDSNAppliesPragmas(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)

	var journalMode string
	require.NoError(t, st.db.QueryRowContext(ctx, `PRAGMA journal_mode;`).Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, st.db.QueryRowContext(ctx, `PRAGMA busy_timeout;`).Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

// File-backed stores keep the full connection pool, unlike the pinned
// :memory: stores the service tests use, so writer contention is real here.
// Losing redeemers must surface ErrAlreadyUsed, never a raw SQLITE_BUSY.
func TestFileStoreConcurrentMarkUsedSingleWinner(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)

	user := domain.User{
		ID:           "01J0000000000000000000USER",
		Email:        "agent@example.com",
		PasswordHash: "x",
		Role:         domain.RoleManager,
		IsActive:     true,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))

	token := domain.RecoveryToken{
		ID:        "01J000000000000000000TOKEN",
		UserID:    user.ID,
		Purpose:   domain.PurposeReset,
		TokenHash: "fingerprint",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, st.RecoveryTokens().CreateRecoveryToken(ctx, token))

	const markers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
		other  []error
	)
	for i := 0; i < markers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.WithTx(ctx, func(tx store.Tx) error {
				return tx.RecoveryTokens().MarkRecoveryTokenUsed(ctx, token.ID, time.Now().UTC())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrAlreadyUsed):
				losses++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other, "losers must see ErrAlreadyUsed, not driver errors")
	require.Equal(t, 1, wins)
	require.Equal(t, markers-1, losses)
}
