package policy

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/response"
)

// Handler exposes role permission management. Admin only via routing.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a permissions handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/permissions.
func (h *Handler) List(c *gin.Context) {
	perms, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list permissions failed", zap.Error(err))
		response.Internal(c, "failed to list permissions")
		return
	}
	response.OK(c, perms)
}

// UpsertRequest is the permission grant payload.
type UpsertRequest struct {
	Role       models.Role `json:"role" binding:"required"`
	ModuleName string      `json:"module_name" binding:"required"`
	IsRead     bool        `json:"is_read"`
	IsCreate   bool        `json:"is_create"`
	IsUpdate   bool        `json:"is_update"`
	IsDelete   bool        `json:"is_delete"`
}

// Upsert handles PUT /api/permissions.
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	p := &models.RolePermission{
		Role:       req.Role,
		ModuleName: req.ModuleName,
		IsRead:     req.IsRead,
		IsCreate:   req.IsCreate,
		IsUpdate:   req.IsUpdate,
		IsDelete:   req.IsDelete,
	}
	if err := h.repo.Upsert(c.Request.Context(), p); err != nil {
		h.logger.Error("upsert permission failed", zap.Error(err))
		response.Internal(c, "failed to save permission")
		return
	}
	response.OK(c, p)
}
