package policy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
)

// Repository reads role permissions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a policy repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the permission row for (role, module), or nil when absent.
func (r *Repository) Get(ctx context.Context, role models.Role, module string) (*models.RolePermission, error) {
	const q = `SELECT role, module_name, is_read, is_create, is_update, is_delete, created_at, updated_at
		FROM role_permissions WHERE role = $1 AND module_name = $2`
	var p models.RolePermission
	err := r.pool.QueryRow(ctx, q, string(role), module).
		Scan(&p.Role, &p.ModuleName, &p.IsRead, &p.IsCreate, &p.IsUpdate, &p.IsDelete, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns all permission rows for admin screens.
func (r *Repository) List(ctx context.Context) ([]models.RolePermission, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, module_name, is_read, is_create, is_update, is_delete, created_at, updated_at
		FROM role_permissions ORDER BY role, module_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RolePermission
	for rows.Next() {
		var p models.RolePermission
		if err := rows.Scan(&p.Role, &p.ModuleName, &p.IsRead, &p.IsCreate, &p.IsUpdate, &p.IsDelete, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Upsert creates or updates a permission row.
func (r *Repository) Upsert(ctx context.Context, p *models.RolePermission) error {
	const q = `INSERT INTO role_permissions (role, module_name, is_read, is_create, is_update, is_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role, module_name) DO UPDATE SET
			is_read = EXCLUDED.is_read, is_create = EXCLUDED.is_create,
			is_update = EXCLUDED.is_update, is_delete = EXCLUDED.is_delete,
			updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, string(p.Role), p.ModuleName, p.IsRead, p.IsCreate, p.IsUpdate, p.IsDelete)
	return err
}
