package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/pkg/validation"
)

const (
	scopeLogin   = "login"
	scopeConfirm = "confirm"

	tokenKeyBytes = 32

	msgEmailTaken       = "account with this email already exists"
	msgPasswordRequired = "password is required"
)

// AttemptLimiter throttles repeated failures per scope and subject (Redis).
type AttemptLimiter interface {
	Exceeded(ctx context.Context, scope, subject string) (bool, error)
	RecordFailure(ctx context.Context, scope, subject string) error
	Reset(ctx context.Context, scope, subject string) error
}

// AuthConfig holds the knobs for credentials and access tokens.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AccountService implements registration, confirmation, login and profile access.
type AccountService struct {
	accounts  ports.AccountRepository
	tokens    ports.TokenRepository
	tx        ports.TxManager
	notices   ports.NoticeQueue
	limiter   AttemptLimiter
	validator *validation.Validator
	cfg       AuthConfig
	log       zerolog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccountService(
	accounts ports.AccountRepository,
	tokens ports.TokenRepository,
	tx ports.TxManager,
	notices ports.NoticeQueue,
	limiter AttemptLimiter,
	cfg AuthConfig,
	log zerolog.Logger,
) *AccountService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		accounts:  accounts,
		tokens:    tokens,
		tx:        tx,
		notices:   notices,
		limiter:   limiter,
		validator: validation.New(),
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a pending account together with its confirmation token.
// Input problems, including a taken email, come back as *domain.ValidationError.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)

	if err := s.validateRegister(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	account := &domain.Account{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Company:      in.Company,
		Position:     in.Position,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var (
		created *domain.Account
		token   *domain.ConfirmationToken
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.FindByEmail(ctx, account.Email); err == nil {
			return domain.NewValidationError("email", msgEmailTaken)
		} else if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("register: lookup email: %w", err)
		}

		var err error
		created, err = s.accounts.Create(ctx, account)
		if errors.Is(err, domain.ErrAccountExists) {
			return domain.NewValidationError("email", msgEmailTaken)
		}
		if err != nil {
			return fmt.Errorf("register: create account: %w", err)
		}

		token, err = s.issue(ctx, created)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(created, token)
	s.log.Info().Str("account_id", created.ID).Msg("account registered")

	return created, nil
}

// validateRegister checks the tags of in and rejects a blank password. The
// password itself is hashed untrimmed.
func (s *AccountService) validateRegister(in *ports.RegisterInput) error {
	err := s.validator.Validate(in)
	if strings.TrimSpace(in.Password) != "" {
		return err
	}

	var ve *domain.ValidationError
	switch {
	case err == nil:
		return domain.NewValidationError("password", msgPasswordRequired)
	case errors.As(err, &ve):
		ve.Fields["password"] = msgPasswordRequired
		return ve
	default:
		return err
	}
}

// Confirm consumes the token identified by key and activates its account.
// Token deletion and activation commit together; on any failure the token
// stays in place.
func (s *AccountService) Confirm(ctx context.Context, email, key string) error {
	email = domain.NormalizeEmail(email)
	key = strings.TrimSpace(key)
	if email == "" || key == "" {
		return domain.ErrTokenNotFound
	}

	subject := attemptSubject(ctx, email)
	if s.throttled(ctx, scopeConfirm, subject) {
		return domain.ErrTooManyAttempts
	}

	var accountID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.tokens.TakeByKey(ctx, key)
		if err != nil {
			return err
		}

		account, err := s.accounts.FindByID(ctx, token.AccountID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrTokenNotFound
		}
		if err != nil {
			return fmt.Errorf("confirm: load account: %w", err)
		}

		if !domain.SameEmail(account.Email, email) {
			return domain.ErrEmailMismatch
		}
		if account.IsActive {
			return domain.ErrAlreadyActive
		}

		accountID = account.ID
		return s.accounts.Activate(ctx, account.ID)
	})
	if err != nil {
		if domain.IsConfirmError(err) {
			s.recordFailure(ctx, scopeConfirm, subject)
			s.log.Debug().Err(err).Str("email", email).Msg("confirmation rejected")
		}
		return err
	}

	s.resetFailures(ctx, scopeConfirm, subject)
	s.log.Info().Str("account_id", accountID).Msg("account confirmed")
	return nil
}

// ResendConfirmation replaces the token of a pending account and sends a new
// notice. Unknown and already active accounts are ignored silently so the
// caller cannot tell which emails are registered.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("email", "email is required")
	}

	var (
		account *domain.Account
		token   *domain.ConfirmationToken
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accounts.FindByEmail(ctx, email)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("resend: lookup email: %w", err)
		}
		if account.IsActive {
			return nil
		}

		token, err = s.issue(ctx, account)
		return err
	})
	if err != nil {
		return err
	}

	if token != nil {
		s.notify(account, token)
		s.log.Info().Str("account_id", account.ID).Msg("confirmation token reissued")
	}
	return nil
}

// Authenticate checks credentials of an active account and returns a signed
// access token. Every mismatch, including an inactive account, yields
// domain.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, *domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	subject := attemptSubject(ctx, email)
	if s.throttled(ctx, scopeLogin, subject) {
		return "", nil, domain.ErrTooManyAttempts
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(password))
		s.recordFailure(ctx, scopeLogin, subject)
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil || !account.IsActive {
		s.recordFailure(ctx, scopeLogin, subject)
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("authenticate: sign token: %w", err)
	}

	s.resetFailures(ctx, scopeLogin, subject)
	return token, account, nil
}

// GetProfile returns the profile of the principal's account.
func (s *AccountService) GetProfile(ctx context.Context, principal domain.Principal) (*domain.Profile, error) {
	account, err := s.principalAccount(ctx, principal)
	if err != nil {
		return nil, err
	}
	return account.Profile(), nil
}

// UpdateProfile applies the non-empty fields of in to the principal's account.
func (s *AccountService) UpdateProfile(ctx context.Context, principal domain.Principal, in ports.UpdateProfileInput) (*domain.Profile, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	var hash []byte
	if in.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("update profile: hash password: %w", err)
		}
	}

	var updated *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.principalAccount(ctx, principal)
		if err != nil {
			return err
		}

		setIfPresent(&account.FirstName, in.FirstName)
		setIfPresent(&account.LastName, in.LastName)
		setIfPresent(&account.Company, in.Company)
		setIfPresent(&account.Position, in.Position)
		if hash != nil {
			account.PasswordHash = string(hash)
		}
		account.UpdatedAt = s.now()

		if err := s.accounts.UpdateProfile(ctx, account); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.Profile(), nil
}

func (s *AccountService) principalAccount(ctx context.Context, principal domain.Principal) (*domain.Account, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	account, err := s.accounts.FindByID(ctx, principal.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// issue stores a fresh token for account, replacing any previous one.
func (s *AccountService) issue(ctx context.Context, account *domain.Account) (*domain.ConfirmationToken, error) {
	key, err := generateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	token := &domain.ConfirmationToken{
		Key:       key,
		AccountID: account.ID,
		CreatedAt: s.now(),
	}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *AccountService) notify(account *domain.Account, token *domain.ConfirmationToken) {
	if s.notices == nil {
		return
	}
	s.notices.Enqueue(ports.ConfirmationNotice{
		AccountID: account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		Token:     token.Key,
		IssuedAt:  token.CreatedAt,
	})
}

// throttled reports whether subject ran out of attempts. Limiter errors are
// logged and the attempt is let through.
func (s *AccountService) throttled(ctx context.Context, scope, subject string) bool {
	if s.limiter == nil {
		return false
	}
	exceeded, err := s.limiter.Exceeded(ctx, scope, subject)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("attempt limiter check failed, allowing")
		return false
	}
	if exceeded {
		s.log.Warn().Str("scope", scope).Str("subject", subject).Msg("attempt limit exceeded")
	}
	return exceeded
}

// attemptSubject scopes failure counting to the caller's address and the
// email, so failures from one client cannot lock the account for others.
func attemptSubject(ctx context.Context, email string) string {
	if ip := domain.ClientIP(ctx); ip != "" {
		return ip + "|" + email
	}
	return email
}

func (s *AccountService) recordFailure(ctx context.Context, scope, subject string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, scope, subject); err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("failed to record attempt")
	}
}

func (s *AccountService) resetFailures(ctx context.Context, scope, subject string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, scope, subject); err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("failed to reset attempts")
	}
}

func (s *AccountService) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cfg.BcryptCost)
	})
	return s.dummyHash
}

func (s *AccountService) generateToken(account *domain.Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

func generateTokenKey() (string, error) {
	b := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
