package slots

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventslot/backend/internal/models"
)

var now = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func testEvent() *models.Event {
	return &models.Event{
		ID:        uuid.New(),
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
	}
}

func validSlot(event *models.Event) *models.Slot {
	return &models.Slot{
		ID:        uuid.New(),
		EventID:   event.ID,
		StartTime: time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 10, 2, 11, 0, 0, 0, time.UTC),
		Capacity:  50,
	}
}

func TestValidate_AcceptsValidSlot(t *testing.T) {
	event := testEvent()
	errs := Validate(validSlot(event), event, 100, now, false)
	assert.True(t, errs.Empty())
}

func TestValidate_EndMustBeAfterStart(t *testing.T) {
	event := testEvent()

	s := validSlot(event)
	s.EndTime = s.StartTime
	errs := Validate(s, event, 100, now, false)
	assert.Contains(t, errs.Fields, "end_time", "zero-length slots are rejected")

	s = validSlot(event)
	s.EndTime = s.StartTime.Add(-time.Hour)
	errs = Validate(s, event, 100, now, false)
	assert.Contains(t, errs.Fields, "end_time")
}

func TestValidate_StartNotInPast(t *testing.T) {
	event := testEvent()
	s := validSlot(event)
	s.StartTime = now.Add(-time.Minute)
	s.EndTime = now.Add(time.Hour)

	errs := Validate(s, event, 100, now, false)
	assert.Contains(t, errs.Fields, "start_time")
}

func TestValidate_CapacityPositive(t *testing.T) {
	event := testEvent()
	s := validSlot(event)
	s.Capacity = 0

	errs := Validate(s, event, 100, now, false)
	assert.Contains(t, errs.Fields, "capacity")
}

func TestValidate_WithinEventDates(t *testing.T) {
	event := testEvent()

	s := validSlot(event)
	s.StartTime = time.Date(2026, 9, 30, 10, 0, 0, 0, time.UTC)
	s.EndTime = time.Date(2026, 9, 30, 11, 0, 0, 0, time.UTC)
	errs := Validate(s, event, 100, time.Date(2026, 9, 29, 0, 0, 0, 0, time.UTC), false)
	assert.Contains(t, errs.General, "slot start time must fall within the event dates")

	s = validSlot(event)
	s.StartTime = time.Date(2026, 10, 3, 23, 0, 0, 0, time.UTC)
	s.EndTime = time.Date(2026, 10, 4, 1, 0, 0, 0, time.UTC)
	errs = Validate(s, event, 100, now, false)
	assert.Contains(t, errs.General, "slot end time must fall within the event dates")

	// A slot on the event's last day is fine.
	s = validSlot(event)
	s.StartTime = time.Date(2026, 10, 3, 10, 0, 0, 0, time.UTC)
	s.EndTime = time.Date(2026, 10, 3, 23, 0, 0, 0, time.UTC)
	errs = Validate(s, event, 100, now, false)
	assert.True(t, errs.Empty())
}

func TestValidate_VenueCapacityCap(t *testing.T) {
	event := testEvent()
	s := validSlot(event)
	s.Capacity = 101

	errs := Validate(s, event, 100, now, false)
	assert.Contains(t, errs.General, "slot capacity cannot exceed the venue capacity")

	s.Capacity = 100
	assert.True(t, Validate(s, event, 100, now, false).Empty())
}

func TestValidate_OverlapReported(t *testing.T) {
	event := testEvent()
	errs := Validate(validSlot(event), event, 100, now, true)
	assert.Contains(t, errs.General, "slot overlaps with an existing slot for this event")
}

func TestSlotOverlapsIsHalfOpen(t *testing.T) {
	s := &models.Slot{
		StartTime: time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 10, 2, 11, 0, 0, 0, time.UTC),
	}

	assert.True(t, s.Overlaps(
		time.Date(2026, 10, 2, 10, 30, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 11, 30, 0, 0, time.UTC)))
	assert.True(t, s.Overlaps(
		time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 10, 30, 0, 0, time.UTC)))

	// Touching boundaries do not overlap.
	assert.False(t, s.Overlaps(
		time.Date(2026, 10, 2, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)))
	assert.False(t, s.Overlaps(
		time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC)))
}
