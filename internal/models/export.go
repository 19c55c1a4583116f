package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportStatus is the lifecycle state of a CSV export job.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// Export is a bookings CSV export requested by an admin. The worker fills
// in ObjectKey and RowCount once the file has been uploaded to S3.
type Export struct {
	ID          uuid.UUID    `json:"id"`
	RequestedBy uuid.UUID    `json:"requested_by"`
	Status      ExportStatus `json:"status"`
	ObjectKey   string       `json:"object_key,omitempty"`
	RowCount    int          `json:"row_count"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// EmailLog records a notification email produced by the worker.
type EmailLog struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"booking_id"`
	Recipient string     `json:"recipient"`
	EmailType string     `json:"email_type"`
	Subject   string     `json:"subject"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
