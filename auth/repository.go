package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository is the account persistence used by Service and the users package.
// Lookups return nil, nil when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone *string) (*User, error)
}

// PGUserRepository stores accounts in PostgreSQL through pgxpool.
type PGUserRepository struct {
	pool *pgxpool.Pool
}

// NewPGUserRepository creates a repository on the shared pool.
func NewPGUserRepository(pool *pgxpool.Pool) *PGUserRepository {
	return &PGUserRepository{pool: pool}
}

const userColumns = `id, name, email, phone, password, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts user and fills in its id and creation time.
func (r *PGUserRepository) Create(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO users (name, email, phone, password)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, user.Name, user.Email, user.Phone, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindByEmail looks an account up by its (lower-case) email.
func (r *PGUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID looks an account up by id.
func (r *PGUserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// UpdateProfile sets name and phone. A nil pointer leaves the column unchanged.
func (r *PGUserRepository) UpdateProfile(ctx context.Context, id int64, name, phone *string) (*User, error) {
	query := `UPDATE users
              SET name = COALESCE($2, name), phone = COALESCE($3, phone)
              WHERE id = $1
              RETURNING ` + userColumns
	return r.findOne(ctx, query, id, name, phone)
}

func (r *PGUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}
