package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a bookable time window under an event with a fixed seat capacity.
//
// Capacity accounting is never cached: ApprovedAttendees is the sum of
// attendees_count over active APPROVED bookings, recomputed by the
// repository on every read so it can never drift from the bookings table.
type Slot struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Capacity  int        `json:"capacity"`
	IsBlocked bool       `json:"is_blocked"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// ApprovedAttendees is loaded alongside the row; not serialized directly.
	ApprovedAttendees int `json:"-"`
}

// RemainingCapacity returns capacity minus approved attendees, floored at 0.
func (s *Slot) RemainingCapacity() int {
	remaining := s.Capacity - s.ApprovedAttendees
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BookedCapacity returns the number of seats consumed by approved bookings.
func (s *Slot) BookedCapacity() int {
	return s.Capacity - s.RemainingCapacity()
}

// Overlaps reports whether the slot's time window overlaps [start, end)
// using half-open interval semantics: windows that merely touch
// (one ends exactly when the other starts) do not overlap.
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// SlotDetail is Slot with derived capacity fields for API responses.
type SlotDetail struct {
	Slot
	BookedCapacity    int `json:"booked_capacity"`
	RemainingCapacity int `json:"remaining_capacity"`
}

// ToDetail attaches the derived capacity fields.
func (s *Slot) ToDetail() SlotDetail {
	return SlotDetail{
		Slot:              *s,
		BookedCapacity:    s.BookedCapacity(),
		RemainingCapacity: s.RemainingCapacity(),
	}
}
