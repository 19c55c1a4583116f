package bookings

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/queue"
	"github.com/eventslot/backend/pkg/validate"
)

// Mailer enqueues booking notification emails. Satisfied by queue.Queue.
type Mailer interface {
	EnqueueEmail(ctx context.Context, p queue.EmailPayload) error
}

// UserDirectory resolves booking owners for notifications. Satisfied by auth.Repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service orchestrates booking operations on top of the transactional Store.
type Service struct {
	store  Store
	users  UserDirectory
	mail   Mailer
	logger *zap.Logger
}

// NewService creates a booking service. users and mail may be nil to
// disable notifications.
func NewService(store Store, users UserDirectory, mail Mailer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, mail: mail, logger: logger}
}

// CreateParams are the caller-settable fields of a new booking. The user
// always comes from the authenticated identity, never the request body.
type CreateParams struct {
	UserID         uuid.UUID
	EventID        uuid.UUID
	SlotID         uuid.UUID
	AttendeesCount int
	Status         models.BookingStatus // defaults to PENDING
}

// Create validates and persists a new booking.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Booking, error) {
	status := p.Status
	if status == "" {
		status = models.BookingPending
	}
	if !status.Valid() {
		errs := validate.New()
		errs.AddField("booking_status", "invalid booking status")
		return nil, errs
	}
	b := &models.Booking{
		UserID:         p.UserID,
		EventID:        p.EventID,
		SlotID:         p.SlotID,
		AttendeesCount: p.AttendeesCount,
		Status:         status,
	}
	if err := s.store.Save(ctx, b); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, b.ID)
}

// Get returns an active booking.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.store.GetByID(ctx, id)
}

// List returns active bookings matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Booking, error) {
	return s.store.List(ctx, f)
}

// UpdateParams are the patchable booking fields. Nil means "unchanged".
type UpdateParams struct {
	EventID        *uuid.UUID
	SlotID         *uuid.UUID
	AttendeesCount *int
	Status         *models.BookingStatus
}

// Update patches a booking and re-runs the full validate-and-reconcile
// pipeline. Admins may change only the status; other roles may change
// anything but the status.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams, actorRole models.Role) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorRole == models.RoleAdmin {
		if p.Status == nil {
			return b, nil
		}
		if !p.Status.Valid() {
			errs := validate.New()
			errs.AddField("booking_status", "invalid booking status")
			return nil, errs
		}
		if b.Status == models.BookingCancelled && *p.Status != models.BookingCancelled {
			errs := validate.New()
			errs.AddGeneral("a cancelled booking cannot change status")
			return nil, errs
		}
		if _, _, err := s.store.UpdateStatus(ctx, b.ID, *p.Status); err != nil {
			return nil, err
		}
		return s.store.GetByID(ctx, b.ID)
	}

	if p.EventID != nil {
		b.EventID = *p.EventID
	}
	if p.SlotID != nil {
		b.SlotID = *p.SlotID
	}
	if p.AttendeesCount != nil {
		b.AttendeesCount = *p.AttendeesCount
	}

	if err := s.store.Save(ctx, b); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, b.ID)
}

// Approve transitions the booking to APPROVED, writing only the status so
// concurrent field updates survive. A no-op when already APPROVED;
// rejected when CANCELLED.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingApproved {
		return b, nil
	}
	if b.Status == models.BookingCancelled {
		errs := validate.New()
		errs.AddGeneral("a cancelled booking cannot be approved")
		return nil, errs
	}
	updated, changed, err := s.store.UpdateStatus(ctx, b.ID, models.BookingApproved)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(ctx, updated, "booking_approved", "Your booking has been approved")
	}
	return s.store.GetByID(ctx, b.ID)
}

// Cancel transitions the booking to CANCELLED. A no-op when already
// CANCELLED. Capacity and overlap checks do not apply to cancellation,
// and the slot unblocks if seats were freed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingCancelled {
		return b, nil
	}
	updated, changed, err := s.store.UpdateStatus(ctx, b.ID, models.BookingCancelled)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(ctx, updated, "booking_cancelled", "Your booking has been cancelled")
	}
	return s.store.GetByID(ctx, b.ID)
}

func (s *Service) notify(ctx context.Context, b *models.Booking, emailType, subject string) {
	if s.mail == nil || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		s.logger.Warn("notify: user lookup failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
		return
	}
	err = s.mail.EnqueueEmail(ctx, queue.EmailPayload{
		BookingID:      b.ID,
		RecipientEmail: u.Email,
		EmailType:      emailType,
		Subject:        subject,
	})
	if err != nil {
		s.logger.Warn("notify: enqueue email failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
	}
}
