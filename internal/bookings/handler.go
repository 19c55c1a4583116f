package bookings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/middleware"
	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/response"
	"github.com/eventslot/backend/pkg/validate"
)

// Handler exposes booking endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a booking handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

func actor(c *gin.Context) (uuid.UUID, models.Role) {
	id, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	return id, models.Role(role)
}

// CreateRequest is the booking creation payload.
type CreateRequest struct {
	EventID        uuid.UUID `json:"event_id" binding:"required"`
	SlotID         uuid.UUID `json:"slot_id" binding:"required"`
	AttendeesCount int       `json:"attendees_count" binding:"required"`
}

// Create handles POST /api/bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID, _ := actor(c)
	b, err := h.service.Create(c.Request.Context(), CreateParams{
		UserID:         userID,
		EventID:        req.EventID,
		SlotID:         req.SlotID,
		AttendeesCount: req.AttendeesCount,
	})
	if err != nil {
		h.fail(c, err, "create booking")
		return
	}
	response.Created(c, b)
}

// List handles GET /api/bookings. Non-admins see only their own bookings.
func (h *Handler) List(c *gin.Context) {
	userID, role := actor(c)

	timeframe := c.Query("timeframe")
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		response.BadRequest(c, "timeframe must be upcoming or past")
		return
	}
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.BadRequest(c, "invalid booking status filter")
		return
	}
	f := ListFilter{
		Status:    status,
		Timeframe: timeframe,
		Search:    c.Query("search"),
	}
	if eventID := c.Query("event_id"); eventID != "" {
		id, err := uuid.Parse(eventID)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		f.EventID = id
	}
	if role == models.RoleAdmin {
		if ownerID := c.Query("user_id"); ownerID != "" {
			id, err := uuid.Parse(ownerID)
			if err != nil {
				response.BadRequest(c, "invalid user_id")
				return
			}
			f.UserID = id
		}
	} else {
		f.UserID = userID
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list bookings failed", zap.Error(err))
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /api/bookings/:id.
func (h *Handler) GetByID(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, b)
}

// UpdateRequest is the booking patch payload.
type UpdateRequest struct {
	EventID        *uuid.UUID            `json:"event_id"`
	SlotID         *uuid.UUID            `json:"slot_id"`
	AttendeesCount *int                  `json:"attendees_count"`
	Status         *models.BookingStatus `json:"booking_status"`
}

// Update handles PATCH /api/bookings/:id.
func (h *Handler) Update(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	_, role := actor(c)
	updated, err := h.service.Update(c.Request.Context(), b.ID, UpdateParams{
		EventID:        req.EventID,
		SlotID:         req.SlotID,
		AttendeesCount: req.AttendeesCount,
		Status:         req.Status,
	}, role)
	if err != nil {
		h.fail(c, err, "update booking")
		return
	}
	response.OK(c, updated)
}

// Approve handles POST /api/bookings/:id/approve. Admin only via routing.
func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "approve booking")
		return
	}
	response.OK(c, b)
}

// Cancel handles POST /api/bookings/:id/cancel. Owners and admins.
func (h *Handler) Cancel(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	cancelled, err := h.service.Cancel(c.Request.Context(), b.ID)
	if err != nil {
		h.fail(c, err, "cancel booking")
		return
	}
	response.OK(c, cancelled)
}

// load parses the id, fetches the booking, and enforces that non-admins
// only touch their own bookings.
func (h *Handler) load(c *gin.Context) (*models.Booking, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return nil, false
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "booking not found")
		} else {
			h.logger.Error("get booking failed", zap.Error(err))
			response.Internal(c, "failed to fetch booking")
		}
		return nil, false
	}
	userID, role := actor(c)
	if role != models.RoleAdmin && b.UserID != userID {
		response.Forbidden(c, "you do not have access to this booking")
		return nil, false
	}
	return b, true
}

func (h *Handler) fail(c *gin.Context, err error, op string) {
	if errs, ok := validate.AsErrors(err); ok {
		response.ValidationFailed(c, errs)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "booking not found")
	case errors.Is(err, ErrSlotNotFound):
		response.NotFound(c, "slot not found")
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}
