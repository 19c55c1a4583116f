package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
)

// ErrNotFound is returned when an export request does not exist.
var ErrNotFound = errors.New("export does not exist")

// Repository persists export requests and reads the booking rows to dump.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an export repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending export request.
func (r *Repository) Create(ctx context.Context, requestedBy uuid.UUID) (*models.Export, error) {
	const q = `
		INSERT INTO exports (requested_by, status)
		VALUES ($1, 'pending')
		RETURNING id, created_at, updated_at`

	e := &models.Export{RequestedBy: requestedBy, Status: models.ExportPending}
	err := r.pool.QueryRow(ctx, q, requestedBy).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create export: %w", err)
	}
	return e, nil
}

// GetByID returns an export request.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error) {
	const q = `
		SELECT id, requested_by, status, COALESCE(object_key, ''), row_count, COALESCE(error, ''),
		       created_at, updated_at
		FROM exports WHERE id = $1`

	e := &models.Export{}
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.RequestedBy, &e.Status, &e.ObjectKey, &e.RowCount, &e.Error,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return e, nil
}

// MarkProcessing flips a pending export to processing.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE exports SET status = 'processing', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkCompleted records the uploaded object and row count.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, objectKey string, rowCount int) error {
	const q = `
		UPDATE exports
		SET status = 'completed', object_key = $2, row_count = $3, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, objectKey, rowCount)
	return err
}

// MarkFailed records the failure reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE exports SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, reason)
	return err
}

// Row is one line of the bookings dump, already joined with its related
// user, event, venue, and slot.
type Row struct {
	BookingID      uuid.UUID
	UserName       string
	UserEmail      string
	EventName      string
	VenueName      string
	SlotStart      time.Time
	SlotEnd        time.Time
	AttendeesCount int
	Status         models.BookingStatus
	CreatedAt      time.Time
}

// Rows returns every active booking, newest first.
func (r *Repository) Rows(ctx context.Context) ([]Row, error) {
	const q = `
		SELECT b.id, u.full_name, u.email, e.name, v.name,
		       s.start_time, s.end_time, b.attendees_count, b.booking_status, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN events e ON e.id = b.event_id
		JOIN venues v ON v.id = e.venue_id
		JOIN slots s ON s.id = b.slot_id
		WHERE b.deleted_at IS NULL
		ORDER BY b.created_at DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		err := rows.Scan(&row.BookingID, &row.UserName, &row.UserEmail, &row.EventName,
			&row.VenueName, &row.SlotStart, &row.SlotEnd, &row.AttendeesCount,
			&row.Status, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
