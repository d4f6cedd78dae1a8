package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/shared/utils"
)

const userColumns = `id, email, password_hash, first_name, last_name, status, created_at, updated_at`

var lookupColumns = map[string]string{
	FieldID:     "id",
	FieldEmail:  "email",
	FieldStatus: "status",
}

// PostgresUserRepository is the PostgreSQL write store (source of truth).
// Deleted rows are kept with deleted_at set and are invisible to every read.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Status, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
		}
		return nil, models.Persistence("create user", err)
	}
	return created, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.FindByField(ctx, FieldID, id)
}

func (r *PostgresUserRepository) FindByField(ctx context.Context, field, value string) (*models.User, error) {
	column, ok := lookupColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if field == FieldID && !utils.IsID(value) {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 AND deleted_at IS NULL ORDER BY seq LIMIT 1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.Persistence("find user by "+field, err)
	}
	return user, nil
}

func (r *PostgresUserRepository) FindPage(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY seq LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, models.Persistence("list users", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, models.Persistence("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Persistence("list users", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) UpdateByID(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if !utils.IsID(id) {
		return nil, nil
	}
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("email", patch.Email)
	add("first_name", patch.FirstName)
	add("last_name", patch.LastName)
	add("status", patch.Status)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case isUniqueViolation(err):
		return nil, fmt.Errorf("update user %s: %w", id, ErrDuplicate)
	case err != nil:
		return nil, models.Persistence("update user", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !utils.IsID(id) {
		return false, nil
	}
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, models.Persistence("delete user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, models.Persistence("delete user", err)
	}
	return rows > 0, nil
}
