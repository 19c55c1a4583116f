package bookings

import (
	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/validate"
)

// Validate is the pre-persist gate. It collects every violated rule before
// returning so the caller can report all of them at once.
//
// totalApprovedOthers is the attendees sum over the slot's other active
// APPROVED bookings (excluding b itself, so updates validate correctly).
// hasUserOverlap is true when the user holds another active PENDING or
// APPROVED booking whose slot window overlaps this booking's slot window.
//
// A CANCELLED booking passes unconditionally: cancelling is always allowed.
func Validate(b *models.Booking, slot *models.Slot, totalApprovedOthers int, hasUserOverlap bool) *validate.Errors {
	errs := validate.New()

	if b.Status == models.BookingCancelled {
		return errs
	}

	if slot.EventID != b.EventID {
		errs.AddGeneral("selected slot does not belong to this event")
	}

	if slot.IsBlocked {
		errs.AddGeneral("this slot is blocked and cannot be booked")
	}

	if b.AttendeesCount <= 0 {
		errs.AddField("attendees_count", "attendees count must be greater than zero")
	}

	if b.Status == models.BookingApproved {
		totalRequested := totalApprovedOthers + b.AttendeesCount
		if totalRequested > slot.Capacity {
			errs.AddGeneral("slot capacity exceeded")
		}
	}

	if hasUserOverlap {
		errs.AddGeneral("user already has an overlapping booking")
	}

	return errs
}

// NextBlockedState returns what the slot's blocked flag must become after a
// successful save: blocked exactly when no capacity remains. The second
// return is false when no write is needed.
func NextBlockedState(remaining int, currentlyBlocked bool) (blocked, changed bool) {
	if remaining <= 0 && !currentlyBlocked {
		return true, true
	}
	if remaining > 0 && currentlyBlocked {
		return false, true
	}
	return currentlyBlocked, false
}
