package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/internal/venues"
	"github.com/eventslot/backend/pkg/response"
)

const dateLayout = "2006-01-02"

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	VenueID     string `json:"venue_id" binding:"required"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate     string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

// UpdateRequest is the body for PATCH /events/:id. Empty fields mean "unchanged".
type UpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo      *Repository
	venueRepo *venues.Repository
	logger    *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, venueRepo *venues.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, venueRepo: venueRepo, logger: logger}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		response.BadRequest(c, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		response.BadRequest(c, "invalid end_date, expected YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		response.BadRequest(c, "end date cannot be before start date")
		return
	}
	if _, err := h.venueRepo.GetByID(c.Request.Context(), venueID); err != nil {
		if errors.Is(err, venues.ErrNotFound) {
			response.NotFound(c, "venue does not exist")
			return
		}
		response.Internal(c, "failed to check venue")
		return
	}
	e := &models.Event{
		Name:        req.Name,
		VenueID:     venueID,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /events with optional search and venue filters.
func (h *Handler) List(c *gin.Context) {
	var venueID *uuid.UUID
	if v := c.Query("venue"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid venue id")
			return
		}
		venueID = &id
	}
	list, err := h.repo.List(c.Request.Context(), c.Query("search"), venueID)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event does not exist")
			return
		}
		response.Internal(c, "failed to get event")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event does not exist")
			return
		}
		response.Internal(c, "failed to get event")
		return
	}

	patch := &models.Event{Name: req.Name, Description: req.Description}
	setStart, setEnd := false, false
	startDate, endDate := existing.StartDate, existing.EndDate
	if req.StartDate != "" {
		startDate, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			response.BadRequest(c, "invalid start_date, expected YYYY-MM-DD")
			return
		}
		patch.StartDate = startDate
		setStart = true
	}
	if req.EndDate != "" {
		endDate, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			response.BadRequest(c, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		patch.EndDate = endDate
		setEnd = true
	}
	if endDate.Before(startDate) {
		response.BadRequest(c, "end date cannot be before start date")
		return
	}

	if err := h.repo.UpdateFields(c.Request.Context(), id, patch, setStart, setEnd); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event does not exist")
			return
		}
		response.Internal(c, "failed to update event")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id (soft delete).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event does not exist")
			return
		}
		response.Internal(c, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"message": "event deleted"})
}
