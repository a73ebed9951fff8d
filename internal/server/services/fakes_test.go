package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/dbx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/logging"
	"github.com/anfelyns/Password-Guardian-sub000/internal/otp"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/config"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
	refreshtokensrepo "github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/refreshtokens"
	secretsrepo "github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/secrets"
	usersrepo "github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/users"
)

// --- shared fakes and helpers for service tests ---

var codePattern = regexp.MustCompile(`\d{6}`)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeUsersRepo is a stateful in-memory record store.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  int

	findErr   error
	createErr error
	updateErr error
	verifyErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	user.ID = fmt.Sprintf("u%d", f.nextID)
	clone := *user
	f.byEmail[user.Email] = &clone
	return user, nil
}

func (f *fakeUsersRepo) UpdateCredential(_ context.Context, userID string, hash, salt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.CredentialHash = hash
			u.CredentialSalt = salt
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUsersRepo) SetVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.EmailVerified = true
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	byToken map[string]*models.RefreshToken

	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byToken: make(map[string]*models.RefreshToken)}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.byToken[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	return nil
}

type fakeSecretsRepo struct {
	mu     sync.Mutex
	byKey  map[string]*models.Secret
	getErr error
}

func newFakeSecretsRepo() *fakeSecretsRepo {
	return &fakeSecretsRepo{byKey: make(map[string]*models.Secret)}
}

func secretKey(userID, name string) string { return userID + "/" + name }

func (f *fakeSecretsRepo) Create(_ context.Context, secret *models.Secret) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *secret
	f.byKey[secretKey(secret.UserID, secret.Name)] = &clone
	return nil
}

func (f *fakeSecretsRepo) GetByName(_ context.Context, userID, name string) (*models.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.byKey[secretKey(userID, name)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSecretsRepo) UpdateToken(_ context.Context, userID, name, envelopeToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byKey[secretKey(userID, name)]; ok {
		s.EnvelopeToken = envelopeToken
	}
	return nil
}

func (f *fakeSecretsRepo) List(_ context.Context, userID string) ([]*models.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Secret
	for _, s := range f.byKey {
		if s.UserID == userID {
			clone := *s
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeSecretsRepo) Delete(_ context.Context, userID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byKey, secretKey(userID, name))
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	s *fakeSecretsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return m.r
}
func (m *fakeRepoManager) Secrets(dbx.DBTX) secretsrepo.Repository { return m.s }

// fakeNotifier records every send and can simulate channel failure.
// Bodies are recorded even on failure so tests can still read the code
// the ledger issued.
type fakeNotifier struct {
	mu      sync.Mutex
	sends   []string // recorded bodies
	sendErr error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, body)
	return n.sendErr
}

// lastCode extracts the 6-digit code from the most recent notification.
func (n *fakeNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sends) == 0 {
		t.Fatalf("no notifications sent")
	}
	code := codePattern.FindString(n.sends[len(n.sends)-1])
	if code == "" {
		t.Fatalf("no code in notification body: %q", n.sends[len(n.sends)-1])
	}
	return code
}

func (n *fakeNotifier) sendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}

type authFixture struct {
	svc      *AuthService
	users    *fakeUsersRepo
	refresh  *fakeRefreshRepo
	secrets  *fakeSecretsRepo
	notifier *fakeNotifier
	clock    *fakeClock
	ledger   *otp.Ledger
	db       *sql.DB
	mock     sqlmock.Sqlmock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &authFixture{
		users:    newFakeUsersRepo(),
		refresh:  newFakeRefreshRepo(),
		secrets:  newFakeSecretsRepo(),
		notifier: &fakeNotifier{},
		clock:    newFakeClock(),
		db:       db,
		mock:     mock,
	}
	f.ledger = otp.NewLedger(f.clock)
	rm := &fakeRepoManager{u: f.users, r: f.refresh, s: f.secrets}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc = NewAuthService(db, rm, f.ledger, f.notifier, logger, cfg)
	return f
}
