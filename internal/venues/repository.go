package venues

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
)

// ErrNotFound is returned when a venue does not exist or is soft-deleted.
var ErrNotFound = errors.New("venue does not exist")

// Repository handles venue persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a venue repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new venue.
func (r *Repository) Create(ctx context.Context, v *models.Venue) error {
	const q = `INSERT INTO venues (id, name, address, city, state, pincode, capacity)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, v.Name, v.Address, v.City, v.State, v.Pincode, v.Capacity).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetByID returns an active venue by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	const q = `SELECT id, name, address, city, state, pincode, capacity, created_at, updated_at, deleted_at
		FROM venues WHERE id = $1 AND deleted_at IS NULL`
	var v models.Venue
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Pincode, &v.Capacity, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns active venues, optionally filtered by search text and city.
func (r *Repository) List(ctx context.Context, search, city string) ([]models.Venue, error) {
	const q = `SELECT id, name, address, city, state, pincode, capacity, created_at, updated_at, deleted_at
		FROM venues
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR name ILIKE '%'||$1||'%' OR address ILIKE '%'||$1||'%' OR city ILIKE '%'||$1||'%' OR state ILIKE '%'||$1||'%' OR pincode ILIKE '%'||$1||'%')
		  AND ($2 = '' OR city ILIKE $2)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, q, search, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Pincode, &v.Capacity, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Update patches venue fields; empty strings and zero capacity leave the column unchanged.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, v *models.Venue) error {
	const q = `UPDATE venues SET
			name = COALESCE(NULLIF($1,''), name),
			address = COALESCE(NULLIF($2,''), address),
			city = COALESCE(NULLIF($3,''), city),
			state = COALESCE(NULLIF($4,''), state),
			pincode = COALESCE(NULLIF($5,''), pincode),
			capacity = CASE WHEN $6 > 0 THEN $6 ELSE capacity END,
			updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, v.Name, v.Address, v.City, v.State, v.Pincode, v.Capacity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the venue deleted; the row is kept.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE venues SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
