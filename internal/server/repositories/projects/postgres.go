package projects

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Insert(ctx context.Context, p *models.ExternalProject) (*models.ExternalProject, error) {
	query :=
		`INSERT INTO external_projects (id, user_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING created_at, updated_at`

	out := *p
	out.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query, out.ID, out.OwnerID, out.Name).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

// FindPage runs a count and a slice query; both use the (user_id, ...)
// indexes. Run it in a REPEATABLE READ transaction for a consistent pair.
func (r *PostgresRepository) FindPage(ctx context.Context, ownerID string, req models.PageRequest) ([]*models.ExternalProject, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM external_projects WHERE user_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query :=
		`SELECT id, user_id, name, created_at, updated_at FROM external_projects
		 WHERE user_id = $1
		 ORDER BY ` + orderBy(req.Sort) + `
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, ownerID, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.ExternalProject, 0, req.Size)
	for rows.Next() {
		p := &models.ExternalProject{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return items, total, nil
}

func orderBy(s models.Sort) string {
	col := "created_at"
	if s.Field == models.SortByName {
		col = "name"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id " + dir
}
