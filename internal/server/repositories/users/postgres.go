package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, COALESCE(name, ''), roles, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func mapWriteError(err error) error {
	if dbx.IsUniqueViolation(err) {
		return common.ErrorUniqueViolation
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, name, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, now(), now())
		 RETURNING created_at, updated_at`

	out := *u
	out.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query, out.ID, out.Email, out.PasswordHash, out.Name, out.Roles).
		Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &out, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) UpdateConditional(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET email = $2, password_hash = $3, name = NULLIF($4, ''), roles = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at`

	out := *u
	err := r.db.QueryRowContext(ctx, query, out.ID, out.Email, out.PasswordHash, out.Name, out.Roles).
		Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}
	return &out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// FindPage runs a count and a slice query. Callers wanting both to observe
// the same snapshot run it inside a REPEATABLE READ transaction.
func (r *PostgresRepository) FindPage(ctx context.Context, req models.PageRequest) ([]*models.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY ` + orderBy(req.Sort) + ` LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.User, 0, req.Size)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return items, total, nil
}

func orderBy(s models.Sort) string {
	col := "created_at"
	if s.Field == models.SortByName {
		col = "COALESCE(name, '')"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id " + dir
}
