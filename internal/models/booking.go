package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingCancelled:
		return true
	}
	return false
}

// Booking reserves AttendeesCount seats in a slot for a user.
//
// Bookings are never hard-deleted: DeletedAt is a visibility tombstone,
// orthogonal to BookingStatus. An "active" booking is one with a nil
// DeletedAt; only active APPROVED bookings count against slot capacity.
type Booking struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	EventID        uuid.UUID     `json:"event_id"`
	SlotID         uuid.UUID     `json:"slot_id"`
	AttendeesCount int           `json:"attendees_count"`
	Status         BookingStatus `json:"booking_status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`

	// Display fields populated on read paths.
	EventName string     `json:"event_name,omitempty"`
	SlotStart *time.Time `json:"slot_start,omitempty"`
}

// Active reports whether the booking is not soft-deleted.
func (b *Booking) Active() bool {
	return b.DeletedAt == nil
}
