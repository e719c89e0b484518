package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/mail"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/internal/identity/store/drivers/sqlite"
	"github.com/keyhaven/backoffice/pkg/cryptox"
	"github.com/keyhaven/backoffice/pkg/idx"
	"github.com/keyhaven/backoffice/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *jwtx.EdDSASigner {
	t.Helper()

	pem, err := jwtx.GenerateEd25519PEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(pem)
	require.NoError(t, err)
	return signer
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "identity-service-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// newFileTestStore opens a file-backed store with the production DSN. The
// :memory: store pins its pool to one connection, so only a file-backed
// store exposes real writer contention.
func newFileTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "identity.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// captureMailer records every outbound message so tests can fish the raw
// tokens out of the email bodies, the only place they ever appear.
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail bool
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return os.ErrDeadlineExceeded
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// tokenFromMail extracts the value of the token= query parameter from a
// link in the message body.
func tokenFromMail(t *testing.T, msg mail.Message) string {
	t.Helper()
	const marker = "token="
	idx := -1
	for i := 0; i+len(marker) <= len(msg.Text); i++ {
		if msg.Text[i:i+len(marker)] == marker {
			idx = i + len(marker)
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "no token link in email body")
	end := idx
	for end < len(msg.Text) && msg.Text[end] != '\n' && msg.Text[end] != ' ' {
		end++
	}
	return msg.Text[idx:end]
}

func newInviteService(st store.Store, mailer *captureMailer) *InviteService {
	return &InviteService{
		Store:    st,
		Mailer:   mailer,
		Composer: mail.NewComposer("https://backoffice.test"),
	}
}

func newIdentityService(t *testing.T, st store.Store, mailer *captureMailer) *IdentityService {
	t.Helper()

	signer := newTestSigner(t)
	return &IdentityService{
		Store:    st,
		Tokens:   &TokenService{},
		Signer:   signer,
		Mailer:   mailer,
		Composer: mail.NewComposer("https://backoffice.test"),
		Issuer:   "https://backoffice.test",
	}
}

// seedUser writes a user directly to the store, bypassing the invitation
// flow, for tests that need an existing account.
func seedUser(t *testing.T, st store.Store, email, password string, role domain.Role, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))

	stored, err := st.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return stored
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
