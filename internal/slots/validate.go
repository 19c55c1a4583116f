package slots

import (
	"time"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/validate"
)

// Validate checks a slot against its event and venue. hasOverlap is true
// when another active slot of the same event occupies an overlapping time
// window (half-open comparison, excluding the slot itself).
func Validate(s *models.Slot, event *models.Event, venueCapacity int, now time.Time, hasOverlap bool) *validate.Errors {
	errs := validate.New()

	if !s.EndTime.After(s.StartTime) {
		errs.AddField("end_time", "end time must be after the start time")
	}
	if s.StartTime.Before(now) {
		errs.AddField("start_time", "start time cannot be in the past")
	}
	if s.Capacity <= 0 {
		errs.AddField("capacity", "capacity must be a positive integer")
	}

	startDay := s.StartTime.UTC().Truncate(24 * time.Hour)
	endDay := s.EndTime.UTC().Truncate(24 * time.Hour)
	if startDay.Before(event.StartDate) {
		errs.AddGeneral("slot start time must fall within the event dates")
	}
	if endDay.After(event.EndDate) {
		errs.AddGeneral("slot end time must fall within the event dates")
	}

	if venueCapacity > 0 && s.Capacity > venueCapacity {
		errs.AddGeneral("slot capacity cannot exceed the venue capacity")
	}

	if hasOverlap {
		errs.AddGeneral("slot overlaps with an existing slot for this event")
	}

	return errs
}
