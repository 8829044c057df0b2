package endpoints

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsgate/opsgate/internal/shared"
)

// Repository defines persistence operations for endpoint definitions.
type Repository interface {
	List(ctx context.Context) ([]Definition, error)
	Get(ctx context.Context, id int64) (Definition, error)
	Create(ctx context.Context, def Definition) (Definition, error)
	Update(ctx context.Context, def Definition) (Definition, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const defColumns = `id, path, method, description, query_template, created_at, updated_at`

// List returns all definitions ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Definition, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+defColumns+` FROM admin_endpoints ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var defs []Definition
	for rows.Next() {
		var def Definition
		if err := rows.Scan(&def.ID, &def.Path, &def.Method, &def.Description, &def.QueryTemplate, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Get fetches a definition by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (Definition, error) {
	var def Definition
	err := r.pool.QueryRow(ctx, `SELECT `+defColumns+` FROM admin_endpoints WHERE id = $1`, id).
		Scan(&def.ID, &def.Path, &def.Method, &def.Description, &def.QueryTemplate, &def.CreatedAt, &def.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Definition{}, shared.ErrNotFound
	}
	return def, err
}

// Create inserts a definition.
func (r *PGRepository) Create(ctx context.Context, def Definition) (Definition, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_endpoints (path, method, description, query_template) VALUES ($1, $2, $3, $4) RETURNING `+defColumns,
		def.Path, def.Method, def.Description, def.QueryTemplate).
		Scan(&def.ID, &def.Path, &def.Method, &def.Description, &def.QueryTemplate, &def.CreatedAt, &def.UpdatedAt)
	return def, err
}

// Update rewrites a definition.
func (r *PGRepository) Update(ctx context.Context, def Definition) (Definition, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE admin_endpoints SET path = $2, method = $3, description = $4, query_template = $5, updated_at = NOW() WHERE id = $1 RETURNING `+defColumns,
		def.ID, def.Path, def.Method, def.Description, def.QueryTemplate).
		Scan(&def.ID, &def.Path, &def.Method, &def.Description, &def.QueryTemplate, &def.CreatedAt, &def.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Definition{}, shared.ErrNotFound
	}
	return def, err
}

// Delete removes a definition.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_endpoints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
