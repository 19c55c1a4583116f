package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
)

// ErrNotFound is returned when an event does not exist or is soft-deleted.
var ErrNotFound = errors.New("event does not exist")

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, name, venue_id, description, start_date, end_date)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Name, e.VenueID, e.Description, e.StartDate, e.EndDate).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an active event by ID with its venue name.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT e.id, e.name, e.venue_id, COALESCE(e.description,''), e.start_date, e.end_date,
			e.created_at, e.updated_at, e.deleted_at, v.name
		FROM events e
		JOIN venues v ON v.id = e.venue_id
		WHERE e.id = $1 AND e.deleted_at IS NULL`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&e.ID, &e.Name, &e.VenueID, &e.Description, &e.StartDate, &e.EndDate,
			&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.VenueName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns active events, optionally filtered by search text and venue.
func (r *Repository) List(ctx context.Context, search string, venueID *uuid.UUID) ([]models.Event, error) {
	const q = `SELECT e.id, e.name, e.venue_id, COALESCE(e.description,''), e.start_date, e.end_date,
			e.created_at, e.updated_at, e.deleted_at, v.name
		FROM events e
		JOIN venues v ON v.id = e.venue_id
		WHERE e.deleted_at IS NULL
		  AND ($1 = '' OR e.name ILIKE '%'||$1||'%' OR v.name ILIKE '%'||$1||'%')
		  AND ($2::uuid IS NULL OR e.venue_id = $2)
		ORDER BY e.start_date DESC, e.name`
	rows, err := r.pool.Query(ctx, q, search, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.VenueID, &e.Description, &e.StartDate, &e.EndDate,
			&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.VenueName); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateFields patches event columns; empty strings and unset dates mean "unchanged".
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, e *models.Event, setStart, setEnd bool) error {
	const q = `UPDATE events SET
			name = COALESCE(NULLIF($1,''), name),
			description = COALESCE(NULLIF($2,''), description),
			start_date = CASE WHEN $3 THEN $4 ELSE start_date END,
			end_date = CASE WHEN $5 THEN $6 ELSE end_date END,
			updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, e.Name, e.Description, setStart, e.StartDate, setEnd, e.EndDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the event deleted; the row is kept.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE events SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
