package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"booking_id", "user_name", "user_email", "event", "venue",
	"slot_start", "slot_end", "attendees_count", "status", "booked_at",
}

// WriteCSV streams the booking rows as CSV, header first. Returns the
// number of data rows written.
func WriteCSV(w io.Writer, rows []Row) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, r := range rows {
		record := []string{
			r.BookingID.String(),
			r.UserName,
			r.UserEmail,
			r.EventName,
			r.VenueName,
			r.SlotStart.UTC().Format(time.RFC3339),
			r.SlotEnd.UTC().Format(time.RFC3339),
			strconv.Itoa(r.AttendeesCount),
			string(r.Status),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(rows), cw.Error()
}
