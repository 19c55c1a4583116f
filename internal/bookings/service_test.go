package bookings

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/queue"
	"github.com/eventslot/backend/pkg/validate"
)

// fakeStore is an in-memory Store that applies the same validate-and-reconcile
// pipeline as the SQL repository, so service behavior can be tested end to end
// without a database.
type fakeStore struct {
	slots    map[uuid.UUID]*models.Slot
	bookings map[uuid.UUID]*models.Booking
}

func newFakeStore(slots ...*models.Slot) *fakeStore {
	s := &fakeStore{
		slots:    make(map[uuid.UUID]*models.Slot),
		bookings: make(map[uuid.UUID]*models.Booking),
	}
	for _, slot := range slots {
		s.slots[slot.ID] = slot
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, f ListFilter) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if f.UserID != uuid.Nil && b.UserID != f.UserID {
			continue
		}
		if f.EventID != uuid.Nil && b.EventID != f.EventID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *fakeStore) approvedOthers(slotID, excludeBooking uuid.UUID) int {
	total := 0
	for _, other := range s.bookings {
		if other.ID != excludeBooking && other.SlotID == slotID && other.Status == models.BookingApproved {
			total += other.AttendeesCount
		}
	}
	return total
}

func (s *fakeStore) userOverlap(b *models.Booking, slot *models.Slot) bool {
	for _, other := range s.bookings {
		if other.ID == b.ID || other.UserID != b.UserID || !other.Active() {
			continue
		}
		if other.Status == models.BookingCancelled {
			continue
		}
		otherSlot, ok := s.slots[other.SlotID]
		if !ok {
			continue
		}
		if otherSlot.Overlaps(slot.StartTime, slot.EndTime) {
			return true
		}
	}
	return false
}

func (s *fakeStore) reconcile(slotID uuid.UUID) {
	slot, ok := s.slots[slotID]
	if !ok {
		return
	}
	slot.ApprovedAttendees = s.approvedOthers(slotID, uuid.Nil)
	if blocked, changed := NextBlockedState(slot.RemainingCapacity(), slot.IsBlocked); changed {
		slot.IsBlocked = blocked
	}
}

func (s *fakeStore) Save(_ context.Context, b *models.Booking) error {
	slot, ok := s.slots[b.SlotID]
	if !ok {
		return ErrSlotNotFound
	}

	prevSlotID := uuid.Nil
	if b.ID != uuid.Nil {
		stored, ok := s.bookings[b.ID]
		if !ok {
			return ErrNotFound
		}
		b.Status = stored.Status
		if stored.SlotID != b.SlotID {
			prevSlotID = stored.SlotID
		}
	}

	if err := Validate(b, slot, s.approvedOthers(slot.ID, b.ID), s.userOverlap(b, slot)).ErrOrNil(); err != nil {
		return err
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	s.bookings[b.ID] = &cp

	s.reconcile(b.SlotID)
	if prevSlotID != uuid.Nil {
		s.reconcile(prevSlotID)
	}
	return nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, bool, error) {
	stored, ok := s.bookings[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if stored.Status == status {
		cp := *stored
		return &cp, false, nil
	}
	if stored.Status == models.BookingCancelled {
		errs := validate.New()
		errs.AddGeneral("a cancelled booking cannot change status")
		return nil, false, errs
	}

	slot, ok := s.slots[stored.SlotID]
	if !ok {
		return nil, false, ErrSlotNotFound
	}
	b := *stored
	b.Status = status
	if err := Validate(&b, slot, s.approvedOthers(slot.ID, b.ID), s.userOverlap(&b, slot)).ErrOrNil(); err != nil {
		return nil, false, err
	}

	stored.Status = status
	s.reconcile(stored.SlotID)
	cp := *stored
	return &cp, true, nil
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) EnqueueEmail(ctx context.Context, p queue.EmailPayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, nil
}

func newTestSlot(eventID uuid.UUID, capacity int, start, end time.Time) *models.Slot {
	return &models.Slot{
		ID:        uuid.New(),
		EventID:   eventID,
		StartTime: start,
		EndTime:   end,
		Capacity:  capacity,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 1, hour, minute, 0, 0, time.UTC)
}

func TestServiceCreate_DefaultsToPending(t *testing.T) {
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	svc := NewService(newFakeStore(slot), nil, nil, nil)

	b, err := svc.Create(context.Background(), CreateParams{
		UserID:         uuid.New(),
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
}

func TestServiceCreate_InvalidStatusRejected(t *testing.T) {
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	svc := NewService(newFakeStore(slot), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateParams{
		UserID:         uuid.New(),
		EventID:        eventID,
		SlotID:         slot.ID,
		AttendeesCount: 1,
		Status:         "DONE",
	})
	errs, ok := validate.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.Fields, "booking_status")
}

func TestServiceCreate_UnknownSlot(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateParams{
		UserID:         uuid.New(),
		EventID:        uuid.New(),
		SlotID:         uuid.New(),
		AttendeesCount: 1,
	})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCapacityFillsAndBlocksSlot(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	store := newFakeStore(slot)
	svc := NewService(store, nil, nil, nil)

	first, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID,
		AttendeesCount: 8, Status: models.BookingApproved,
	})
	require.NoError(t, err)
	assert.False(t, slot.IsBlocked)

	// 8 of 10 seats taken; 5 more must be rejected.
	_, err = svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID,
		AttendeesCount: 5, Status: models.BookingApproved,
	})
	errs, ok := validate.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.General, "slot capacity exceeded")

	// 2 more fills the slot exactly and blocks it.
	_, err = svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID,
		AttendeesCount: 2, Status: models.BookingApproved,
	})
	require.NoError(t, err)
	assert.True(t, slot.IsBlocked)

	// Cancelling frees seats and unblocks the slot.
	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, slot.IsBlocked)
	assert.Equal(t, 2, slot.ApprovedAttendees)
}

func TestUserOverlapAcrossSlots(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	morning := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	overlapping := newTestSlot(eventID, 10, at(10, 30), at(11, 30))
	adjacent := newTestSlot(eventID, 10, at(11, 0), at(12, 0))
	svc := NewService(newFakeStore(morning, overlapping, adjacent), nil, nil, nil)

	userID := uuid.New()
	_, err := svc.Create(ctx, CreateParams{
		UserID: userID, EventID: eventID, SlotID: morning.ID, AttendeesCount: 1,
	})
	require.NoError(t, err)

	// 10:30-11:30 overlaps the held 10:00-11:00 booking.
	_, err = svc.Create(ctx, CreateParams{
		UserID: userID, EventID: eventID, SlotID: overlapping.ID, AttendeesCount: 1,
	})
	errs, ok := validate.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.General, "user already has an overlapping booking")

	// 11:00-12:00 merely touches the boundary and is accepted.
	_, err = svc.Create(ctx, CreateParams{
		UserID: userID, EventID: eventID, SlotID: adjacent.ID, AttendeesCount: 1,
	})
	assert.NoError(t, err)

	// A different user is free to take the overlapping slot.
	_, err = svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: overlapping.ID, AttendeesCount: 1,
	})
	assert.NoError(t, err)
}

func TestApprove_IdempotentAndNotifies(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	store := newFakeStore(slot)

	mail := &mockMailer{}
	mail.On("EnqueueEmail", mock.Anything, mock.MatchedBy(func(p queue.EmailPayload) bool {
		return p.EmailType == "booking_approved" && p.RecipientEmail == "sam@example.com"
	})).Return(nil).Once()

	svc := NewService(store, &stubUsers{user: &models.User{Email: "sam@example.com"}}, mail, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID, AttendeesCount: 4,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, approved.Status)
	assert.Equal(t, 4, slot.ApprovedAttendees)

	// Second approve is a no-op: no second email, capacity unchanged.
	again, err := svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, again.Status)
	assert.Equal(t, 4, slot.ApprovedAttendees)

	mail.AssertExpectations(t)
}

func TestApprove_CancelledBookingRejected(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	svc := NewService(newFakeStore(slot), nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID, AttendeesCount: 1,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, b.ID)
	errs, ok := validate.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.General, "a cancelled booking cannot be approved")
}

func TestCancel_BypassesValidationAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 2, at(10, 0), at(11, 0))
	store := newFakeStore(slot)
	svc := NewService(store, nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID,
		AttendeesCount: 2, Status: models.BookingApproved,
	})
	require.NoError(t, err)
	assert.True(t, slot.IsBlocked)

	// Cancelling succeeds even though the slot is now blocked.
	cancelled, err := svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.False(t, slot.IsBlocked)

	again, err := svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, again.Status)
}

func TestUpdate_RoleFieldTrimming(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	svc := NewService(newFakeStore(slot), nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID, AttendeesCount: 2,
	})
	require.NoError(t, err)

	// Non-admins cannot change the status.
	approved := models.BookingApproved
	five := 5
	updated, err := svc.Update(ctx, b.ID, UpdateParams{
		AttendeesCount: &five,
		Status:         &approved,
	}, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AttendeesCount)
	assert.Equal(t, models.BookingPending, updated.Status)

	// Admins change only the status; other fields are ignored.
	nine := 9
	updated, err = svc.Update(ctx, b.ID, UpdateParams{
		AttendeesCount: &nine,
		Status:         &approved,
	}, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AttendeesCount)
	assert.Equal(t, models.BookingApproved, updated.Status)
}

func TestUpdate_CancelledCannotChangeStatus(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	svc := NewService(newFakeStore(slot), nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID, AttendeesCount: 2,
	})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	pending := models.BookingPending
	_, err = svc.Update(ctx, b.ID, UpdateParams{Status: &pending}, models.RoleAdmin)
	errs, ok := validate.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.General, "a cancelled booking cannot change status")
}

// Random op sequences against one slot: whatever interleaving of creates,
// approvals and cancellations happens, approved seats never exceed capacity
// and the blocked flag always matches remaining capacity.
func TestCapacityInvariantUnderRandomOps(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	eventID := uuid.New()
	slot := newTestSlot(eventID, 25, at(10, 0), at(11, 0))
	store := newFakeStore(slot)
	svc := NewService(store, nil, nil, nil)

	var ids []uuid.UUID
	for i := 0; i < 300; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			b, err := svc.Create(ctx, CreateParams{
				UserID:         uuid.New(),
				EventID:        eventID,
				SlotID:         slot.ID,
				AttendeesCount: 1 + rng.Intn(10),
			})
			if err == nil {
				ids = append(ids, b.ID)
			}
		case op == 1:
			_, _ = svc.Approve(ctx, ids[rng.Intn(len(ids))])
		default:
			_, _ = svc.Cancel(ctx, ids[rng.Intn(len(ids))])
		}

		approved := 0
		for _, b := range store.bookings {
			if b.Status == models.BookingApproved {
				approved += b.AttendeesCount
			}
		}
		require.LessOrEqual(t, approved, slot.Capacity, "op %d overcommitted the slot", i)
		require.Equal(t, approved >= slot.Capacity, slot.IsBlocked,
			"op %d left the blocked flag inconsistent (approved=%d)", i, approved)
	}
}

// interceptStore runs a competing mutation right after the first read, so
// tests can interleave a committed update between a service's snapshot
// read and its subsequent write.
type interceptStore struct {
	Store
	competing func()
	fired     bool
}

func (s *interceptStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.Store.GetByID(ctx, id)
	if !s.fired && s.competing != nil {
		s.fired = true
		s.competing()
	}
	return b, err
}

func TestApprove_KeepsConcurrentlyUpdatedFields(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	slot := newTestSlot(eventID, 10, at(10, 0), at(11, 0))
	store := newFakeStore(slot)
	svc := NewService(store, nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: slot.ID, AttendeesCount: 2,
	})
	require.NoError(t, err)

	// The owner's attendee change commits after the admin's approve has
	// read the booking but before it writes the status.
	five := 5
	wrapped := &interceptStore{Store: store, competing: func() {
		_, err := svc.Update(ctx, b.ID, UpdateParams{AttendeesCount: &five}, models.RoleUser)
		require.NoError(t, err)
	}}

	approved, err := NewService(wrapped, nil, nil, nil).Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, approved.Status)
	assert.Equal(t, 5, approved.AttendeesCount, "approve must not overwrite the committed attendee change")
	assert.Equal(t, 5, slot.ApprovedAttendees)
}

func TestUpdate_MoveToAnotherSlotUnblocksTheOldOne(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	small := newTestSlot(eventID, 2, at(10, 0), at(11, 0))
	large := newTestSlot(eventID, 10, at(14, 0), at(15, 0))
	store := newFakeStore(small, large)
	svc := NewService(store, nil, nil, nil)

	b, err := svc.Create(ctx, CreateParams{
		UserID: uuid.New(), EventID: eventID, SlotID: small.ID,
		AttendeesCount: 2, Status: models.BookingApproved,
	})
	require.NoError(t, err)
	require.True(t, small.IsBlocked)

	largeID := large.ID
	moved, err := svc.Update(ctx, b.ID, UpdateParams{SlotID: &largeID}, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, large.ID, moved.SlotID)
	assert.Equal(t, models.BookingApproved, moved.Status, "the move must not touch the status")

	assert.False(t, small.IsBlocked, "freed seats must unblock the old slot immediately")
	assert.Equal(t, 0, small.ApprovedAttendees)
	assert.Equal(t, 2, large.ApprovedAttendees)
}
