package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civita-labs/civic-report/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	// CreateIfAbsent inserts the user unless the email already exists.
	// Registration is idempotent by email; it reports whether a row was
	// freshly inserted.
	CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	SetPremiumByEmail(ctx context.Context, email string, premium bool) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, photo_url, role, premium, blocked, password_hash, created_at, updated_at`

func (r *userRepository) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	const query = `
        INSERT INTO users (name, email, photo_url, role, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO NOTHING
        RETURNING id, created_at, updated_at`

	role := user.Role
	if role == "" {
		role = domain.RoleCitizen
	}
	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PhotoURL,
		role,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	user.Role = role
	return true, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, photo_url=$2, role=$3, premium=$4, blocked=$5, password_hash=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.PhotoURL,
		user.Role,
		user.Premium,
		user.Blocked,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PhotoURL,
		&user.Role,
		&user.Premium,
		&user.Blocked,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PhotoURL,
			&user.Role,
			&user.Premium,
			&user.Blocked,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.execOne(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`, role, id)
}

func (r *userRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.execOne(ctx, `UPDATE users SET blocked=$1, updated_at=NOW() WHERE id=$2`, blocked, id)
}

func (r *userRepository) SetPremiumByEmail(ctx context.Context, email string, premium bool) error {
	return r.execOne(ctx, `UPDATE users SET premium=$1, updated_at=NOW() WHERE email=$2`, premium, email)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id=$1`, id)
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
