package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventslot/backend/internal/models"
)

func TestWriteCSV(t *testing.T) {
	bookingID := uuid.New()
	rows := []Row{{
		BookingID:      bookingID,
		UserName:       "Priya Sharma",
		UserEmail:      "priya@example.com",
		EventName:      "Go Conference, 2026", // comma forces quoting
		VenueName:      "City Hall",
		SlotStart:      time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		SlotEnd:        time.Date(2026, 10, 2, 11, 0, 0, 0, time.UTC),
		AttendeesCount: 3,
		Status:         models.BookingApproved,
		CreatedAt:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	count, err := WriteCSV(&buf, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		bookingID.String(), "Priya Sharma", "priya@example.com",
		"Go Conference, 2026", "City Hall",
		"2026-10-02T10:00:00Z", "2026-10-02T11:00:00Z",
		"3", "APPROVED", "2026-09-01T12:00:00Z",
	}, records[1])
}

func TestWriteCSV_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	count, err := WriteCSV(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}
