package venues

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/response"
)

// CreateRequest is the body for POST /venues.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Pincode  string `json:"pincode" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

// UpdateRequest is the body for PATCH /venues/:id. Zero values mean "unchanged".
type UpdateRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Capacity int    `json:"capacity"`
}

// Handler handles venue HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a venues handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /venues.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v := &models.Venue{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Pincode:  req.Pincode,
		Capacity: req.Capacity,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create venue failed", zap.Error(err))
		response.Internal(c, "failed to create venue")
		return
	}
	response.Created(c, v)
}

// List handles GET /venues with optional search and city filters.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("search"), c.Query("city"))
	if err != nil {
		response.Internal(c, "failed to list venues")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /venues/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "venue does not exist")
			return
		}
		response.Internal(c, "failed to get venue")
		return
	}
	response.OK(c, v)
}

// Update handles PATCH /venues/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Capacity < 0 {
		response.BadRequest(c, "capacity must be a positive integer")
		return
	}
	patch := &models.Venue{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Pincode:  req.Pincode,
		Capacity: req.Capacity,
	}
	if err := h.repo.Update(c.Request.Context(), id, patch); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "venue does not exist")
			return
		}
		response.Internal(c, "failed to update venue")
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load venue")
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /venues/:id (soft delete).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "venue does not exist")
			return
		}
		response.Internal(c, "failed to delete venue")
		return
	}
	response.OK(c, gin.H{"message": "venue deleted"})
}
