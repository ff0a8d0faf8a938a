package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CredentialStore exposes the credential lookups and updates needed by the
// auth flows. The password hash never leaves this boundary except inside
// UserCredentials.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
	SetPassword(ctx context.Context, userID, passwordHash string) error
}

// UserCredentials pairs an account with its stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// EmailSender delivers verification codes. Implementations must not retain
// the body after Send returns.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenIssuer mints access tokens for verified principals.
type TokenIssuer interface {
	Issue(user User, issuedAt time.Time) (token string, expiresAt time.Time, err error)
}

// AuthService implements registration, the two-step login handshake, and the
// password reset handshake. Each handshake stores its short lived codes in
// its own store, so a login code can never complete a password reset and a
// reset request never clobbers a pending login code.
type AuthService struct {
	users       UserRepository
	credentials CredentialStore
	loginCodes  *CodeStore
	resetCodes  *CodeStore
	sender      EmailSender
	tokens      TokenIssuer
	hashParams  Argon2idParams
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthService constructs an auth service with the provided dependencies.
func NewAuthService(users UserRepository, credentials CredentialStore, loginCodes, resetCodes *CodeStore, sender EmailSender, tokens TokenIssuer, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(users, credentials, loginCodes, resetCodes, sender, tokens, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an auth service with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, credentials CredentialStore, loginCodes, resetCodes *CodeStore, sender EmailSender, tokens TokenIssuer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if loginCodes == nil {
		loginCodes = NewCodeStore(DefaultCodeTTL, now)
	}
	if resetCodes == nil {
		resetCodes = NewCodeStore(DefaultCodeTTL, now)
	}
	return &AuthService{
		users:       users,
		credentials: credentials,
		loginCodes:  loginCodes,
		resetCodes:  resetCodes,
		sender:      sender,
		tokens:      tokens,
		hashParams:  DefaultArgon2idParams,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a new non-administrator account from a self-service signup.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Register")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	input := normalizeUserInput(UserInput{
		Username:    params.Username,
		Email:       params.Email,
		Password:    params.Password,
		PhoneNumber: params.PhoneNumber,
		Country:     params.Country,
		Town:        params.Town,
	})
	vErr := validateUserInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureRegistrationUnique(ctx, input); err != nil {
		return
	}

	var hash string
	hash, err = CreatePasswordHash(input.Password, s.hashParams)
	if err != nil {
		return
	}

	user = User{
		ID:          s.idGenerator(),
		Username:    input.Username,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Country:     input.Country,
		Town:        input.Town,
		CreatedAt:   s.now().UTC(),
	}
	user.UpdatedAt = user.CreatedAt

	user, err = s.users.CreateUser(ctx, user, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	return
}

// Login verifies the email and password, then issues a verification code and
// emails it to the account. The login only completes once VerifyTwoFactor
// redeems the code.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}

	logger := s.loggerWith(ctx, "Login")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login attempt failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "verification code issued")
	}()

	creds, lookupErr := s.credentials.GetUserCredentialsByEmail(ctx, normalizeEmail(params.Email))
	if lookupErr != nil {
		if isNotFound(lookupErr) {
			err = ErrInvalidCredentials
			return
		}
		err = lookupErr
		return
	}

	if err = VerifyPassword(creds.PasswordHash, params.Password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			err = ErrInvalidCredentials
		}
		return
	}

	err = s.issueAndSendCode(ctx, s.loginCodes, creds.User, "Your login verification code",
		"Use this code to finish signing in: %s\nIt expires in %d minutes.")
	return
}

// VerifyTwoFactor redeems a login verification code and returns an access token.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, params VerifyParams) (result TokenResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token issuer not configured")
		return
	}

	logger := s.loggerWith(ctx, "VerifyTwoFactor")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "two-factor verification failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "two-factor verification succeeded")
	}()

	userID, verifyErr := s.loginCodes.Verify(normalizeEmail(params.Email), params.Code)
	if verifyErr != nil {
		err = verifyErr
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, userID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	var token string
	var expiresAt time.Time
	token, expiresAt, err = s.tokens.Issue(user, s.now().UTC())
	if err != nil {
		return
	}

	result = TokenResult{AccessToken: token, ExpiresAt: expiresAt, User: user}
	return
}

// ForgotPassword issues a reset code for the account and emails it. The
// stored password stays valid until ResetPassword redeems the code.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}

	logger := s.loggerWith(ctx, "ForgotPassword")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset code issued")
	}()

	creds, lookupErr := s.credentials.GetUserCredentialsByEmail(ctx, normalizeEmail(email))
	if lookupErr != nil {
		if isNotFound(lookupErr) {
			err = ErrNotFound
			return
		}
		err = lookupErr
		return
	}

	err = s.issueAndSendCode(ctx, s.resetCodes, creds.User, "Your password reset code",
		"Use this code to reset your password: %s\nIt expires in %d minutes.")
	return
}

// ResetPassword redeems a reset code, stores a new password hash, and issues
// a fresh access token so the caller is signed in immediately.
func (s *AuthService) ResetPassword(ctx context.Context, params ResetPasswordParams) (result TokenResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token issuer not configured")
		return
	}

	logger := s.loggerWith(ctx, "ResetPassword")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "password reset completed")
	}()

	if len(params.NewPassword) < MinPasswordLength {
		vErr := &ValidationError{}
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		err = vErr
		return
	}

	userID, verifyErr := s.resetCodes.Verify(normalizeEmail(params.Email), params.Code)
	if verifyErr != nil {
		err = verifyErr
		return
	}

	var hash string
	hash, err = CreatePasswordHash(params.NewPassword, s.hashParams)
	if err != nil {
		return
	}

	if err = s.credentials.SetPassword(ctx, userID, hash); err != nil {
		err = mapUserRepoError(err)
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, userID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	var token string
	var expiresAt time.Time
	token, expiresAt, err = s.tokens.Issue(user, s.now().UTC())
	if err != nil {
		return
	}

	result = TokenResult{AccessToken: token, ExpiresAt: expiresAt, User: user}
	return
}

// issueAndSendCode stores a fresh code in the given store before attempting
// delivery. A failed send leaves the code redeemable so a later resend does
// not invalidate an email that was actually delivered.
func (s *AuthService) issueAndSendCode(ctx context.Context, codes *CodeStore, user User, subject, bodyFormat string) error {
	code, expiresAt, err := codes.Issue(user.Email, user.ID)
	if err != nil {
		return err
	}

	if s.sender == nil {
		return fmt.Errorf("email sender not configured")
	}

	minutes := int(expiresAt.Sub(s.now()).Minutes())
	if minutes <= 0 {
		minutes = int(codes.ttl.Minutes())
	}
	body := fmt.Sprintf(bodyFormat, code, minutes)
	if err := s.sender.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailSendFailure, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) ensureRegistrationUnique(ctx context.Context, input UserInput) error {
	if other, err := s.users.GetUserByUsername(ctx, input.Username); err == nil && other.ID != "" {
		return ErrAlreadyExists
	} else if err != nil && !isNotFound(err) {
		return mapUserRepoError(err)
	}

	if other, err := s.users.GetUserByEmail(ctx, input.Email); err == nil && other.ID != "" {
		return ErrAlreadyExists
	} else if err != nil && !isNotFound(err) {
		return mapUserRepoError(err)
	}

	if input.PhoneNumber != nil {
		if other, err := s.users.GetUserByPhone(ctx, *input.PhoneNumber); err == nil && other.ID != "" {
			return ErrAlreadyExists
		} else if err != nil && !isNotFound(err) {
			return mapUserRepoError(err)
		}
	}

	return nil
}
