package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
)

// ErrNotFound is returned when a slot does not exist or is soft-deleted.
var ErrNotFound = errors.New("slot does not exist")

// slotColumns selects the slot row plus the live approved-attendees sum.
// The sum is recomputed per read; nothing is cached on the slot row.
const slotColumns = `s.id, s.event_id, s.start_time, s.end_time, s.capacity, s.is_blocked,
	s.created_at, s.updated_at, s.deleted_at,
	COALESCE((SELECT SUM(b.attendees_count) FROM bookings b
		WHERE b.slot_id = s.id AND b.booking_status = 'APPROVED' AND b.deleted_at IS NULL), 0)`

// Repository handles slot persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a slot repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSlot(row pgx.Row) (*models.Slot, error) {
	var s models.Slot
	err := row.Scan(&s.ID, &s.EventID, &s.StartTime, &s.EndTime, &s.Capacity, &s.IsBlocked,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt, &s.ApprovedAttendees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new slot.
func (r *Repository) Create(ctx context.Context, s *models.Slot) error {
	const q = `INSERT INTO slots (id, event_id, start_time, end_time, capacity, is_blocked)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.EventID, s.StartTime, s.EndTime, s.Capacity, s.IsBlocked).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns an active slot by ID with its approved-attendees sum.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1 AND s.deleted_at IS NULL`
	return scanSlot(r.pool.QueryRow(ctx, q, id))
}

// ListByEvent returns active slots for an event ordered by start time.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots s
		WHERE s.event_id = $1 AND s.deleted_at IS NULL ORDER BY s.start_time`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// HasOverlapping reports whether another active slot of the event occupies
// an overlapping window. Half-open: touching boundaries do not overlap.
func (r *Repository) HasOverlapping(ctx context.Context, eventID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM slots
		WHERE event_id = $1 AND deleted_at IS NULL AND id <> $4
		  AND start_time < $3 AND end_time > $2
	)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, eventID, start, end, excludeID).Scan(&exists)
	return exists, err
}

// Update rewrites the mutable slot columns.
func (r *Repository) Update(ctx context.Context, s *models.Slot) error {
	const q = `UPDATE slots SET start_time = $1, end_time = $2, capacity = $3, is_blocked = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, s.StartTime, s.EndTime, s.Capacity, s.IsBlocked, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the slot deleted; bookings keep referencing the row.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE slots SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
