package slots

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/events"
	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/internal/venues"
	"github.com/eventslot/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/slots.
type CreateRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Capacity  int       `json:"capacity" binding:"required"`
	IsBlocked bool      `json:"is_blocked"`
}

// UpdateRequest is the body for PATCH /slots/:id. Nil fields mean "unchanged".
type UpdateRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Capacity  *int       `json:"capacity"`
	IsBlocked *bool      `json:"is_blocked"`
}

// Handler handles slot HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	venueRepo *venues.Repository
	logger    *zap.Logger
}

// NewHandler creates a slots handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, venueRepo *venues.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, venueRepo: venueRepo, logger: logger}
}

// Create handles POST /events/:id/slots.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			response.NotFound(c, "event does not exist")
			return
		}
		response.Internal(c, "failed to get event")
		return
	}
	venue, err := h.venueRepo.GetByID(c.Request.Context(), event.VenueID)
	if err != nil {
		response.Internal(c, "failed to get venue")
		return
	}

	s := &models.Slot{
		EventID:   eventID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		IsBlocked: req.IsBlocked,
	}

	hasOverlap, err := h.repo.HasOverlapping(c.Request.Context(), eventID, s.StartTime, s.EndTime, uuid.Nil)
	if err != nil {
		response.Internal(c, "failed to check slot overlap")
		return
	}
	if errs := Validate(s, event, venue.Capacity, time.Now(), hasOverlap); !errs.Empty() {
		response.ValidationFailed(c, errs)
		return
	}

	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create slot failed", zap.Error(err))
		response.Internal(c, "failed to create slot")
		return
	}
	response.Created(c, s.ToDetail())
}

// ListByEvent handles GET /events/:id/slots.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list slots")
		return
	}
	details := make([]models.SlotDetail, 0, len(list))
	for i := range list {
		details = append(details, list[i].ToDetail())
	}
	response.OK(c, details)
}

// GetByID handles GET /slots/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "slot does not exist")
			return
		}
		response.Internal(c, "failed to get slot")
		return
	}
	response.OK(c, s.ToDetail())
}

// Update handles PATCH /slots/:id. The full rule set is re-validated
// against the patched slot before anything is written.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "slot does not exist")
			return
		}
		response.Internal(c, "failed to get slot")
		return
	}
	if req.StartTime != nil {
		s.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		s.EndTime = *req.EndTime
	}
	if req.Capacity != nil {
		s.Capacity = *req.Capacity
	}
	if req.IsBlocked != nil {
		s.IsBlocked = *req.IsBlocked
	}

	event, err := h.eventRepo.GetByID(c.Request.Context(), s.EventID)
	if err != nil {
		response.Internal(c, "failed to get event")
		return
	}
	venue, err := h.venueRepo.GetByID(c.Request.Context(), event.VenueID)
	if err != nil {
		response.Internal(c, "failed to get venue")
		return
	}
	hasOverlap, err := h.repo.HasOverlapping(c.Request.Context(), s.EventID, s.StartTime, s.EndTime, s.ID)
	if err != nil {
		response.Internal(c, "failed to check slot overlap")
		return
	}

	// When only the blocked flag changes, skip time-window validation so
	// admins can still unblock slots that have started.
	timeChanged := req.StartTime != nil || req.EndTime != nil || req.Capacity != nil
	if timeChanged {
		if errs := Validate(s, event, venue.Capacity, time.Now(), hasOverlap); !errs.Empty() {
			response.ValidationFailed(c, errs)
			return
		}
	}

	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "slot does not exist")
			return
		}
		response.Internal(c, "failed to update slot")
		return
	}
	response.OK(c, s.ToDetail())
}

// Delete handles DELETE /slots/:id (soft delete).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "slot does not exist")
			return
		}
		response.Internal(c, "failed to delete slot")
		return
	}
	response.OK(c, gin.H{"message": "slot deleted"})
}
