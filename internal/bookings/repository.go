package bookings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/validate"
)

var (
	// ErrNotFound is returned when a booking does not exist or is soft-deleted.
	ErrNotFound = errors.New("booking does not exist")
	// ErrSlotNotFound is returned when the referenced slot does not exist or is soft-deleted.
	ErrSlotNotFound = errors.New("slot does not exist")
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	UserID    uuid.UUID // only this user's bookings
	EventID   uuid.UUID
	Status    models.BookingStatus
	Timeframe string // "upcoming" (slot starts in future) or "past" (slot ended)
	Search    string // matches event or venue name
}

// Store is the persistence boundary for bookings. Save and UpdateStatus
// both run the full validate-and-reconcile transaction; UpdateStatus is
// the only path that writes booking_status.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, f ListFilter) ([]models.Booking, error)
	Save(ctx context.Context, b *models.Booking) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, bool, error)
}

// Repository is the PostgreSQL Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a booking repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `b.id, b.user_id, b.event_id, b.slot_id, b.attendees_count, b.booking_status,
	b.created_at, b.updated_at, b.deleted_at, e.name, s.start_time`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.EventID, &b.SlotID, &b.AttendeesCount, &b.Status,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt, &b.EventName, &b.SlotStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetByID returns an active booking with display fields.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN slots s ON s.id = b.slot_id
		WHERE b.id = $1 AND b.deleted_at IS NULL`
	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

// List returns active bookings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN slots s ON s.id = b.slot_id
		JOIN venues v ON v.id = e.venue_id
		WHERE b.deleted_at IS NULL
		  AND ($1::uuid IS NULL OR b.user_id = $1)
		  AND ($2::uuid IS NULL OR b.event_id = $2)
		  AND ($3 = '' OR b.booking_status = $3)
		  AND ($4 = '' OR ($4 = 'upcoming' AND s.start_time >= NOW()) OR ($4 = 'past' AND s.end_time < NOW()))
		  AND ($5 = '' OR e.name ILIKE '%'||$5||'%' OR v.name ILIKE '%'||$5||'%')
		ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, q,
		nilIfZero(f.UserID), nilIfZero(f.EventID), string(f.Status), f.Timeframe, f.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// lockBooking locks the booking row and returns its stored state. The
// booking row is always locked before any slot row; Save and UpdateStatus
// share that lock order.
func lockBooking(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Booking, error) {
	b := models.Booking{ID: id}
	err := tx.QueryRow(ctx,
		`SELECT user_id, event_id, slot_id, attendees_count, booking_status, created_at, updated_at
		 FROM bookings
		 WHERE id = $1 AND deleted_at IS NULL
		 FOR UPDATE`,
		id,
	).Scan(&b.UserID, &b.EventID, &b.SlotID, &b.AttendeesCount, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock booking row: %w", err)
	}
	return &b, nil
}

// lockSlot locks one active slot row for the duration of the transaction.
func lockSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	err := tx.QueryRow(ctx,
		`SELECT id, event_id, start_time, end_time, capacity, is_blocked
		 FROM slots
		 WHERE id = $1 AND deleted_at IS NULL
		 FOR UPDATE`,
		id,
	).Scan(&slot.ID, &slot.EventID, &slot.StartTime, &slot.EndTime, &slot.Capacity, &slot.IsBlocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("lock slot row: %w", err)
	}
	return &slot, nil
}

// approvedSum returns the attendees held by active APPROVED bookings on the
// slot, excluding the booking being saved.
func approvedSum(ctx context.Context, tx pgx.Tx, slotID, excludeBooking uuid.UUID) (int, error) {
	var total int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(attendees_count), 0)
		 FROM bookings
		 WHERE slot_id = $1 AND booking_status = 'APPROVED' AND deleted_at IS NULL AND id <> $2`,
		slotID, excludeBooking,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum approved attendees: %w", err)
	}
	return total, nil
}

// userOverlapExists reports whether the user holds another active PENDING or
// APPROVED booking whose slot window overlaps [start, end). Half-open:
// touching boundaries do not overlap.
func userOverlapExists(ctx context.Context, tx pgx.Tx, userID, excludeBooking uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings ob
			JOIN slots os ON os.id = ob.slot_id
			WHERE ob.user_id = $1 AND ob.id <> $2
			  AND ob.deleted_at IS NULL AND os.deleted_at IS NULL
			  AND ob.booking_status IN ('PENDING', 'APPROVED')
			  AND os.start_time < $4 AND os.end_time > $3
		)`,
		userID, excludeBooking, start, end,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlapping bookings: %w", err)
	}
	return exists, nil
}

// reconcileSlot updates the slot's blocked flag to match its remaining
// capacity given the approved seat count.
func reconcileSlot(ctx context.Context, tx pgx.Tx, slot *models.Slot, approved int) error {
	slot.ApprovedAttendees = approved
	blocked, changed := NextBlockedState(slot.RemainingCapacity(), slot.IsBlocked)
	if !changed {
		return nil
	}
	if _, err := tx.Exec(ctx,
		`UPDATE slots SET is_blocked = $1, updated_at = NOW() WHERE id = $2`,
		blocked, slot.ID,
	); err != nil {
		return fmt.Errorf("reconcile slot blocked flag: %w", err)
	}
	slot.IsBlocked = blocked
	return nil
}

// Save atomically validates and persists the booking's fields, then
// reconciles the affected slots' blocked flags against their recomputed
// remaining capacity.
//
// Slot rows are locked with SELECT ... FOR UPDATE before the aggregate
// reads, so two concurrent saves against the same slot serialize: the
// second transaction re-reads the approved sum only after the first has
// committed, and cannot overcommit the slot. Any validation failure rolls
// the whole transaction back; no partial writes are visible.
//
// On updates the status is never written and the stored status is the
// validation input; status transitions go through UpdateStatus. When the
// update moves the booking to a different slot, the previous slot is
// reconciled in the same transaction so freed seats unblock it immediately.
func (r *Repository) Save(ctx context.Context, b *models.Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	prevSlotID := uuid.Nil
	if b.ID != uuid.Nil {
		stored, err := lockBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		b.Status = stored.Status
		if stored.SlotID != b.SlotID {
			prevSlotID = stored.SlotID
		}
	}

	// Lock the target slot and, on a move, the previous slot too. Slot
	// locks are taken in id order so concurrent moves cannot deadlock.
	var slot, prevSlot *models.Slot
	if prevSlotID != uuid.Nil && bytes.Compare(prevSlotID[:], b.SlotID[:]) < 0 {
		prevSlot, err = lockSlot(ctx, tx, prevSlotID)
		if err != nil && !errors.Is(err, ErrSlotNotFound) {
			return err
		}
	}
	slot, err = lockSlot(ctx, tx, b.SlotID)
	if err != nil {
		return err
	}
	if prevSlotID != uuid.Nil && prevSlot == nil {
		prevSlot, err = lockSlot(ctx, tx, prevSlotID)
		if err != nil && !errors.Is(err, ErrSlotNotFound) {
			return err
		}
	}

	totalApproved, err := approvedSum(ctx, tx, b.SlotID, b.ID)
	if err != nil {
		return err
	}
	hasOverlap, err := userOverlapExists(ctx, tx, b.UserID, b.ID, slot.StartTime, slot.EndTime)
	if err != nil {
		return err
	}

	if errs := Validate(b, slot, totalApproved, hasOverlap); !errs.Empty() {
		return errs
	}

	if b.ID == uuid.Nil {
		err = tx.QueryRow(ctx,
			`INSERT INTO bookings (id, user_id, event_id, slot_id, attendees_count, booking_status)
			 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
			 RETURNING id, created_at, updated_at`,
			b.UserID, b.EventID, b.SlotID, b.AttendeesCount, string(b.Status),
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
	} else {
		err = tx.QueryRow(ctx,
			`UPDATE bookings
			 SET event_id = $1, slot_id = $2, attendees_count = $3, updated_at = NOW()
			 WHERE id = $4 AND deleted_at IS NULL
			 RETURNING updated_at`,
			b.EventID, b.SlotID, b.AttendeesCount, b.ID,
		).Scan(&b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
	}

	approved := totalApproved
	if b.Status == models.BookingApproved {
		approved += b.AttendeesCount
	}
	if err := reconcileSlot(ctx, tx, slot, approved); err != nil {
		return err
	}
	// The update above already moved the booking off the previous slot, so
	// its sum naturally excludes it.
	if prevSlot != nil {
		prevApproved, err := approvedSum(ctx, tx, prevSlot.ID, b.ID)
		if err != nil {
			return err
		}
		if err := reconcileSlot(ctx, tx, prevSlot, prevApproved); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus transitions the booking to status, persisting only the
// status and update timestamp so field updates committed since the caller
// last read the booking survive untouched. The stored row, read under the
// row lock, is the validation input; the full validate-and-reconcile
// pipeline still runs. The second return reports whether a transition
// happened: writing the status a booking already has is a no-op.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if b.Status == status {
		return b, false, nil
	}
	if b.Status == models.BookingCancelled {
		errs := validate.New()
		errs.AddGeneral("a cancelled booking cannot change status")
		return nil, false, errs
	}
	b.Status = status

	slot, err := lockSlot(ctx, tx, b.SlotID)
	if err != nil {
		return nil, false, err
	}
	totalApproved, err := approvedSum(ctx, tx, b.SlotID, b.ID)
	if err != nil {
		return nil, false, err
	}
	hasOverlap, err := userOverlapExists(ctx, tx, b.UserID, b.ID, slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, false, err
	}
	if errs := Validate(b, slot, totalApproved, hasOverlap); !errs.Empty() {
		return nil, false, errs
	}

	err = tx.QueryRow(ctx,
		`UPDATE bookings SET booking_status = $1, updated_at = NOW()
		 WHERE id = $2 AND deleted_at IS NULL
		 RETURNING updated_at`,
		string(status), b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("update booking status: %w", err)
	}

	approved := totalApproved
	if b.Status == models.BookingApproved {
		approved += b.AttendeesCount
	}
	if err := reconcileSlot(ctx, tx, slot, approved); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	return b, true, nil
}
