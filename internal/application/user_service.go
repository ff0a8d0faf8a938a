package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 6

// UserRepository captures the persistence operations needed by the user service.
// Create and Update receive the password hash separately because the
// application User never carries credentials; an empty hash on Update keeps
// the stored one.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
	UpdateUser(ctx context.Context, user User, passwordHash string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// CreateUserParams wraps an administrative user creation request.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps a partial user update request.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Patch     UserPatch
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	hashParams  Argon2idParams
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		hashParams:  DefaultArgon2idParams,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	input := normalizeUserInput(params.Input)
	vErr := validateUserInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureUnique(ctx, input.Username, input.Email, input.PhoneNumber, ""); err != nil {
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
		IsAdmin:     input.IsAdmin,
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

// GetUser returns a single account for any authenticated principal.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// ListUsers returns every account ordered by username.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) (users []User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListUsers",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(users)).InfoContext(ctx, "users listed")
	}()

	var raw []User
	raw, err = s.users.ListUsers(ctx)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	users = make([]User, len(raw))
	copy(users, raw)
	sort.Slice(users, func(i, j int) bool {
		if strings.EqualFold(users[i].Username, users[j].Username) {
			return users[i].ID < users[j].ID
		}
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})

	return
}

// UpdateUser applies a partial update to an account. Users may edit their own
// profile; only administrators may edit other accounts or the admin flag.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user updated")
	}()

	if params.Principal.UserID != params.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if params.Patch.IsAdmin != nil && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	updated, hash, vErr := s.applyUserPatch(existing, params.Patch)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureUnique(ctx, updated.Username, updated.Email, updated.PhoneNumber, updated.ID); err != nil {
		return
	}

	updated.UpdatedAt = s.now().UTC()

	user, err = s.users.UpdateUser(ctx, updated, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	return
}

// DeleteUser removes an account. Users may delete themselves; administrators
// may delete anyone.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if principal.UserID != userID && !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// applyUserPatch folds the patch into the stored account and rehashes the
// password when one was supplied. It returns the hash to store alongside the
// user, empty when the password is unchanged.
func (s *UserService) applyUserPatch(existing User, patch UserPatch) (User, string, *ValidationError) {
	vErr := &ValidationError{}
	updated := existing

	if patch.Username != nil {
		updated.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		updated.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.PhoneNumber != nil {
		updated.PhoneNumber = normalizePhone(patch.PhoneNumber)
	}
	if patch.Country != nil {
		updated.Country = strings.TrimSpace(*patch.Country)
	}
	if patch.Town != nil {
		updated.Town = strings.TrimSpace(*patch.Town)
	}
	if patch.IsAdmin != nil {
		updated.IsAdmin = *patch.IsAdmin
	}

	if updated.Username == "" {
		vErr.add("username", "username is required")
	}
	if updated.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(updated.Email); err != nil {
		vErr.add("email", "email is not a valid address")
	}
	if updated.Country == "" {
		vErr.add("country", "country is required")
	}
	if updated.Town == "" {
		vErr.add("town", "town is required")
	}

	var hash string
	if patch.Password != nil {
		if len(*patch.Password) < MinPasswordLength {
			vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		} else if created, err := CreatePasswordHash(*patch.Password, s.hashParams); err == nil {
			hash = created
		} else {
			vErr.add("password", "password could not be processed")
		}
	}

	return updated, hash, vErr
}

// ensureUnique rejects the username, email, or phone number when another
// account already holds it. excludeID skips the account being updated.
func (s *UserService) ensureUnique(ctx context.Context, username, email string, phone *string, excludeID string) error {
	vErr := &ValidationError{}

	if other, err := s.users.GetUserByUsername(ctx, username); err == nil {
		if other.ID != excludeID {
			vErr.add("username", "username is already taken")
		}
	} else if !isNotFound(err) {
		return mapUserRepoError(err)
	}

	if other, err := s.users.GetUserByEmail(ctx, email); err == nil {
		if other.ID != excludeID {
			vErr.add("email", "email is already registered")
		}
	} else if !isNotFound(err) {
		return mapUserRepoError(err)
	}

	if phone != nil && *phone != "" {
		if other, err := s.users.GetUserByPhone(ctx, *phone); err == nil {
			if other.ID != excludeID {
				vErr.add("phone_number", "phone number is already registered")
			}
		} else if !isNotFound(err) {
			return mapUserRepoError(err)
		}
	}

	if vErr.HasErrors() {
		return ErrAlreadyExists
	}
	return nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Country = strings.TrimSpace(input.Country)
	input.Town = strings.TrimSpace(input.Town)
	input.PhoneNumber = normalizePhone(input.PhoneNumber)
	return input
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Username == "" {
		vErr.add("username", "username is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is not a valid address")
	}
	if len(input.Password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if input.Country == "" {
		vErr.add("country", "country is required")
	}
	if input.Town == "" {
		vErr.add("town", "town is required")
	}

	return vErr
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
