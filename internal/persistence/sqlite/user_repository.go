package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = "id, username, email, password_hash, phone_number, country, town, is_admin, created_at, updated_at"

// CreateUser inserts a new user record.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullString(user.PhoneNumber),
		user.Country,
		user.Town,
		boolToInt(user.IsAdmin),
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapUniqueError(err, r.mapper)
	}
	return nil
}

// UpdateUser updates an existing user record.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, phone_number = ?, country = ?, town = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullString(user.PhoneNumber),
		user.Country,
		user.Town,
		boolToInt(user.IsAdmin),
		user.UpdatedAt.UTC().Format(time.RFC3339),
		user.ID,
	)
	if err != nil {
		return mapUniqueError(err, r.mapper)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetUserByUsername retrieves a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// GetUserByPhone retrieves a user by phone number.
func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (persistence.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE phone_number = ?", phone)
}

// ListUsers returns all users ordered by username.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY username ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// DeleteUser removes a user by id.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (persistence.User, error) {
	user, err := scanUser(r.helper.QueryRow(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var phone sql.NullString
	var isAdmin int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&phone,
		&user.Country,
		&user.Town,
		&isAdmin,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.User{}, err
	}

	if phone.Valid {
		user.PhoneNumber = &phone.String
	}
	user.IsAdmin = isAdmin != 0

	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

func nullString(value *string) sql.NullString {
	var out sql.NullString
	if value != nil {
		out.String = *value
		out.Valid = true
	}
	return out
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// mapUniqueError maps constraint failures to persistence sentinels.
func mapUniqueError(err error, mapper *ErrorMapper) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if containsAny(errStr, "UNIQUE constraint failed") {
		return persistence.ErrDuplicate
	}
	if containsAny(errStr, "FOREIGN KEY constraint failed") {
		return persistence.ErrForeignKeyViolation
	}
	if containsAny(errStr, "CHECK constraint failed") {
		return persistence.ErrConstraintViolation
	}
	return mapper.MapError(err)
}
