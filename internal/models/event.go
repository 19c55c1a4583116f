package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled happening at a venue. Slots are created under it.
// StartDate and EndDate are calendar dates (time set to midnight UTC);
// same-day events have StartDate == EndDate.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	VenueID     uuid.UUID  `json:"venue_id"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// VenueName is populated on read paths for display.
	VenueName string `json:"venue_name,omitempty"`
}
