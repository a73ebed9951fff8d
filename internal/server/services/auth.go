// Package services contains server-side business logic. This file
// implements AuthService, the state machine behind registration, email
// verification, two-factor login, step-up verification, and password
// reset. Every identity transition is gated by a one-time code from the
// pending-code ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/dbx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/keyderiv"
	"github.com/anfelyns/Password-Guardian-sub000/internal/logging"
	"github.com/anfelyns/Password-Guardian-sub000/internal/otp"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/auth"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/config"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/notify"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterResult reports a committed registration. Delivered is false
// when the code could not be sent; the code is still valid and the
// caller may offer a resend.
type RegisterResult struct {
	UserID    string
	Delivered bool
}

// PendingLogin is returned by Authenticate: the credential checked out
// and a 2FA code is on its way. It carries only public identity fields
// plus the vault salt the client needs to re-derive the vault key.
type PendingLogin struct {
	UserID    string
	Email     string
	UserName  string
	VaultSalt keyderiv.Salt
	Delivered bool
}

// Session is an authenticated login: identity plus minted tokens.
type Session struct {
	UserID    string
	Email     string
	UserName  string
	VaultSalt keyderiv.Salt
	Tokens    TokenPair
}

// Challenge reports an issued step-up or reset code.
type Challenge struct {
	Delivered bool
}

// AuthService orchestrates the registration, login, step-up, and reset
// tracks over the record store, the pending-code ledger, and the
// notifier. Collaborator failures are wrapped into the taxonomy
// sentinels and never leak raw.
type AuthService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	ledger   *otp.Ledger
	notifier notify.Notifier
	logger   logging.Logger
	config   *config.Config
}

func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, ledger *otp.Ledger,
	notifier notify.Notifier, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:       db,
		repos:    rm,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		config:   cfg,
	}
}

// NormalizeEmail lower-cases and trims an email address. Every lookup
// and ledger key uses the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates or refreshes an identity and issues a Register code.
// A verified identity under the same email fails with ErrEmailTaken;
// an unverified one gets fresh credentials and a fresh code (the old
// one is invalidated by the overwrite).
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}

	repo := s.repos.Users(s.db)

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, s.storeErr(err)
	}
	if existing != nil && existing.EmailVerified {
		return nil, common.ErrEmailTaken
	}

	credSalt, err := keyderiv.NewSalt()
	if err != nil {
		return nil, common.ErrorInternal
	}
	credHash := keyderiv.DeriveCredentialHash([]byte(password), credSalt)

	var userID string
	if existing != nil {
		if err := repo.UpdateCredential(ctx, existing.ID, credHash, credSalt); err != nil {
			return nil, s.storeErr(err)
		}
		userID = existing.ID
	} else {
		vaultSalt, err := keyderiv.NewSalt()
		if err != nil {
			return nil, common.ErrorInternal
		}
		user, err := repo.Create(ctx, &models.User{
			Email:          email,
			UserName:       strings.TrimSpace(username),
			CredentialHash: credHash,
			CredentialSalt: credSalt,
			VaultSalt:      vaultSalt,
		})
		if err != nil {
			return nil, s.storeErr(err)
		}
		userID = user.ID
	}

	delivered, err := s.issueAndDeliver(ctx, email, otp.PurposeRegister,
		"Confirm your registration")
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "registration pending verification", "email", email, "delivered", delivered)
	return &RegisterResult{UserID: userID, Delivered: delivered}, nil
}

// VerifyRegistration consumes the Register code and marks the identity
// verified. Ledger failures surface unchanged and the identity is not
// mutated. An identity that is already verified fails with
// ErrAlreadyVerified instead of being re-marked.
func (s *AuthService) VerifyRegistration(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}

	if err := s.ledger.Consume(email, otp.PurposeRegister, code); err != nil {
		return err
	}

	repo := s.repos.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return s.storeErr(err)
	}
	if user.EmailVerified {
		return common.ErrAlreadyVerified
	}
	if err := repo.SetVerified(ctx, user.ID); err != nil {
		return s.storeErr(err)
	}

	s.logger.Info(ctx, "email verified", "email", email)
	return nil
}

// Authenticate checks the login password and, on success, issues a
// Login2FA code. Order of checks: existence, email verification,
// credential. An unverified email fails before any code is issued.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*PendingLogin, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}

	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	if !keyderiv.VerifyCredential([]byte(password), user.CredentialHash, user.CredentialSalt) {
		s.logger.Warn(ctx, "credential check failed", "email", email)
		return nil, common.ErrBadCredential
	}

	delivered, err := s.issueAndDeliver(ctx, email, otp.PurposeLogin2FA,
		"Your login code")
	if err != nil {
		return nil, err
	}

	return &PendingLogin{
		UserID:    user.ID,
		Email:     user.Email,
		UserName:  user.UserName,
		VaultSalt: user.VaultSalt,
		Delivered: delivered,
	}, nil
}

// VerifyLoginCode consumes the Login2FA code and, on success, mints a
// session token pair.
func (s *AuthService) VerifyLoginCode(ctx context.Context, email, code string) (*Session, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}

	if err := s.ledger.Consume(email, otp.PurposeLogin2FA, code); err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return nil, s.storeErr(err)
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login complete", "email", email)
	return &Session{
		UserID:    user.ID,
		Email:     user.Email,
		UserName:  user.UserName,
		VaultSalt: user.VaultSalt,
		Tokens:    *pair,
	}, nil
}

// SendStepUpCode issues a StepUp code for re-authorizing a sensitive
// action without a full re-login.
func (s *AuthService) SendStepUpCode(ctx context.Context, email string) (*Challenge, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	delivered, err := s.issueAndDeliver(ctx, email, otp.PurposeStepUp,
		"Confirm this sensitive action")
	if err != nil {
		return nil, err
	}
	return &Challenge{Delivered: delivered}, nil
}

// VerifyStepUpCode consumes the StepUp code.
func (s *AuthService) VerifyStepUpCode(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	return s.ledger.Consume(email, otp.PurposeStepUp, code)
}

// SendResetCode issues a Reset code for the password reset track.
func (s *AuthService) SendResetCode(ctx context.Context, email string) (*Challenge, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users(s.db).FindByEmail(ctx, email); err != nil {
		return nil, s.storeErr(err)
	}

	delivered, err := s.issueAndDeliver(ctx, email, otp.PurposeReset,
		"Your password reset code")
	if err != nil {
		return nil, err
	}
	return &Challenge{Delivered: delivered}, nil
}

// VerifyResetCode is a non-consuming peek used to gate the "set new
// password" screen. The single-use code is only burned by
// UpdatePasswordWithCode, so an abandoned screen transition costs
// nothing.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	return s.ledger.Peek(email, otp.PurposeReset, code)
}

// UpdatePasswordWithCode consumes the Reset code and, only on success,
// re-derives and persists a fresh credential hash and salt.
func (s *AuthService) UpdatePasswordWithCode(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}

	if err := s.ledger.Consume(email, otp.PurposeReset, code); err != nil {
		return err
	}

	repo := s.repos.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return s.storeErr(err)
	}

	salt, err := keyderiv.NewSalt()
	if err != nil {
		return common.ErrorInternal
	}
	hash := keyderiv.DeriveCredentialHash([]byte(newPassword), salt)

	if err := repo.UpdateCredential(ctx, user.ID, hash, salt); err != nil {
		return s.storeErr(err)
	}

	s.logger.Info(ctx, "password updated via reset code", "email", email)
	return nil
}

// RefreshSession validates a refresh token, rotates it transactionally,
// and returns a fresh TokenPair. Expired tokens yield ErrTokenExpired.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repos.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.storeErr(err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		if errors.Is(err, common.ErrorInternal) || errors.Is(err, common.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, s.storeErr(err)
	}
	return pair, nil
}

// --- helpers below ---

// issueAndDeliver issues a code on the ledger and attempts delivery.
// Delivery failure is logged and reported through the returned bool;
// the issued code stays valid either way.
func (s *AuthService) issueAndDeliver(ctx context.Context, email string, purpose otp.Purpose, subject string) (bool, error) {
	ttl := s.config.CodeTTL(purpose)
	code, err := s.ledger.Issue(email, purpose, ttl)
	if err != nil {
		return false, common.ErrorInternal
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %s.", code, ttl)
	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		s.logger.Warn(ctx, "code delivery failed", "email", email, "purpose", purpose, "error", err.Error())
		return false, nil
	}
	return true, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repos.RefreshTokens(tx).Create(ctx, userID, refresh, s.config.RefreshTokenValidityDuration); err != nil {
		return nil, s.storeErr(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// storeErr wraps a record-store failure. ErrorNotFound passes through;
// anything else becomes ErrStoreUnavailable.
func (s *AuthService) storeErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if email == "" || at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: malformed email", common.ErrInvalidInput)
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != otp.CodeLength {
		return fmt.Errorf("%w: malformed code", common.ErrInvalidInput)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: malformed code", common.ErrInvalidInput)
		}
	}
	return nil
}
