package bookings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventslot/backend/internal/models"
)

func testSlot(eventID uuid.UUID, capacity int) *models.Slot {
	return &models.Slot{
		ID:       uuid.New(),
		EventID:  eventID,
		Capacity: capacity,
	}
}

func TestValidate_CancelledSkipsAllRules(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(uuid.New(), 1) // wrong event
	slot.IsBlocked = true

	b := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: -5,
		Status:         models.BookingCancelled,
	}

	errs := Validate(b, slot, 100, true)
	assert.True(t, errs.Empty(), "cancellation must never be rejected")
}

func TestValidate_SlotMustBelongToEvent(t *testing.T) {
	slot := testSlot(uuid.New(), 10)
	b := &models.Booking{
		EventID:        uuid.New(),
		SlotID:         slot.ID,
		AttendeesCount: 2,
		Status:         models.BookingPending,
	}

	errs := Validate(b, slot, 0, false)
	assert.Contains(t, errs.General, "selected slot does not belong to this event")
}

func TestValidate_BlockedSlotRejected(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(eventID, 10)
	slot.IsBlocked = true
	b := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 2,
		Status:         models.BookingPending,
	}

	errs := Validate(b, slot, 0, false)
	assert.Contains(t, errs.General, "this slot is blocked and cannot be booked")
}

func TestValidate_AttendeesCount(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(eventID, 10)

	cases := []struct {
		name      string
		attendees int
		wantErr   bool
	}{
		{"zero rejected", 0, true},
		{"negative rejected", -1, true},
		{"one accepted", 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &models.Booking{
				EventID:        eventID,
				SlotID:         slot.ID,
				AttendeesCount: tc.attendees,
				Status:         models.BookingPending,
			}
			errs := Validate(b, slot, 0, false)
			if tc.wantErr {
				assert.Contains(t, errs.Fields, "attendees_count")
			} else {
				assert.True(t, errs.Empty())
			}
		})
	}
}

func TestValidate_CapacityOnlyGatesApproved(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(eventID, 10)

	// 8 seats already approved elsewhere; 5 more would exceed capacity.
	pending := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 5,
		Status:         models.BookingPending,
	}
	assert.True(t, Validate(pending, slot, 8, false).Empty(),
		"pending bookings do not consume capacity")

	approved := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 5,
		Status:         models.BookingApproved,
	}
	errs := Validate(approved, slot, 8, false)
	assert.Contains(t, errs.General, "slot capacity exceeded")
}

func TestValidate_CapacityExactFitAccepted(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(eventID, 10)
	b := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 2,
		Status:         models.BookingApproved,
	}

	assert.True(t, Validate(b, slot, 8, false).Empty(),
		"filling the slot exactly is allowed")
}

func TestValidate_UserOverlapRejected(t *testing.T) {
	eventID := uuid.New()
	slot := testSlot(eventID, 10)
	b := &models.Booking{
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 1,
		Status:         models.BookingPending,
	}

	errs := Validate(b, slot, 0, true)
	assert.Contains(t, errs.General, "user already has an overlapping booking")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	slot := testSlot(uuid.New(), 5)
	slot.IsBlocked = true
	b := &models.Booking{
		EventID:        uuid.New(),
		SlotID:         slot.ID,
		AttendeesCount: 0,
		Status:         models.BookingApproved,
	}

	errs := Validate(b, slot, 10, true)
	assert.Len(t, errs.General, 4, "every general violation is reported")
	assert.Contains(t, errs.Fields, "attendees_count")
}

func TestNextBlockedState(t *testing.T) {
	cases := []struct {
		name        string
		remaining   int
		blocked     bool
		wantBlocked bool
		wantChanged bool
	}{
		{"fills up and blocks", 0, false, true, true},
		{"overfull blocks", -3, false, true, true},
		{"frees up and unblocks", 4, true, false, true},
		{"already blocked stays", 0, true, true, false},
		{"open stays open", 7, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocked, changed := NextBlockedState(tc.remaining, tc.blocked)
			assert.Equal(t, tc.wantBlocked, blocked)
			assert.Equal(t, tc.wantChanged, changed)
		})
	}
}
