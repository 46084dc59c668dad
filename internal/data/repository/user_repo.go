package repository

import (
	"context"
	"errors"
	"fmt"

	"superbuy/internal/data/entity"
	"superbuy/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CreateUserParams carries the storage-ready fields for a new user. The
// password arrives pre-hashed; this layer never sees the plaintext.
type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindOneBy(ctx context.Context, criteria map[string]any) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type userRepository struct {
	db  *database.DB
	log *zap.Logger
}

func NewUserRepository(db *database.DB, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// userColumns excludes password_hash: the hash is written on insert but
// never read back into the entity.
const userColumns = `id, first_name, last_name, email, phone_number, role, status, last_login_at, created_at, updated_at`

// userUpdateColumns is the allow-list of updatable fields, each mapped to
// its storage column. Anything else is rejected before touching storage.
var userUpdateColumns = map[string]string{
	"firstName":   "first_name",
	"lastName":    "last_name",
	"phoneNumber": "phone_number",
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PhoneNumber,
		&u.Role,
		&u.Status,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Address loading is not implemented; the sequence is always empty.
	u.Addresses = []entity.Address{}
	return &u, nil
}

// Create inserts a new user with the default role and status, returning the
// stored row. A unique-constraint violation on email surfaces as
// *AlreadyExistsError so concurrent duplicate creations are still caught.
func (ur *userRepository) Create(ctx context.Context, params CreateUserParams) (*entity.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, status)
		VALUES ($1, $2, $3, $4, 'CUSTOMER', 'ACTIVE')
		RETURNING ` + userColumns

	row, err := ur.db.QueryRow(ctx, query,
		params.FirstName,
		params.LastName,
		params.Email,
		params.PasswordHash,
	)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &AlreadyExistsError{Email: params.Email}
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("create user %s: %w", params.Email, ErrCreateReturnedNoRow)
		}
		ur.log.Error("failed to create user",
			zap.Error(err),
			zap.String("email", params.Email),
		)
		return nil, database.Normalize(err, "create user", query)
	}

	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	row, err := ur.db.QueryRow(ctx, query, id)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("failed to find user by id",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, database.Normalize(err, "find user by id", query)
	}

	return user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	row, err := ur.db.QueryRow(ctx, query, email)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, database.Normalize(err, "find user by email", query)
	}

	return user, nil
}

// FindOneBy supports exactly one criterion today: email. Any other or absent
// criteria yields nil. Deliberately minimal until a second lookup is needed.
func (ur *userRepository) FindOneBy(ctx context.Context, criteria map[string]any) (*entity.User, error) {
	if email, ok := criteria["email"].(string); ok && email != "" {
		return ur.FindByEmail(ctx, email)
	}
	return nil, nil
}

// List returns all users ordered by email ascending.
func (ur *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY email`

	rows, err := ur.db.Query(ctx, query)
	if err != nil {
		ur.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, database.Normalize(err, "scan user row", query)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Normalize(err, "iterate user rows", query)
	}

	return users, nil
}

// Update writes the given partial fields and returns the row re-read by id.
// An empty field map fails before any I/O; a missing row after the write is
// ErrNotFoundAfterUpdate.
func (ur *userRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.User, error) {
	if len(fields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	setClause, args, err := buildSetClause(fields, userUpdateColumns)
	if err != nil {
		return nil, err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", setClause, len(args))

	if _, err := ur.db.Exec(ctx, query, args...); err != nil {
		ur.log.Error("failed to update user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, err
	}

	user, err := ur.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("update user %s: %w", id.String(), ErrNotFoundAfterUpdate)
	}

	return user, nil
}

// Delete reports whether exactly one row was removed.
func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := ur.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		ur.log.Error("failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
