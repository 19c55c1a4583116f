// Package policy centralizes role/module permission checks: one
// Authorize(principal, resource, action) query per operation instead of
// per-entity checks scattered through handlers.
package policy

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/middleware"
	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/response"
)

// Action is a permission kind within a module.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Engine answers authorization queries against the role_permissions table.
type Engine struct {
	repo   *Repository
	logger *zap.Logger
}

// NewEngine creates a policy engine.
func NewEngine(repo *Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger}
}

// Authorize reports whether the role may perform action on the module.
// The admin role is authorized for everything.
func (e *Engine) Authorize(ctx context.Context, role models.Role, module string, action Action) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	perm, err := e.repo.Get(ctx, role, module)
	if err != nil {
		return false, err
	}
	if perm == nil {
		return false, nil
	}
	switch action {
	case ActionRead:
		return perm.IsRead, nil
	case ActionCreate:
		return perm.IsCreate, nil
	case ActionUpdate:
		return perm.IsUpdate, nil
	case ActionDelete:
		return perm.IsDelete, nil
	}
	return false, nil
}

// Require returns a middleware enforcing the module/action permission for
// the authenticated user's role.
func Require(engine *Engine, module string, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, ok := c.Get(middleware.ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		allowed, err := engine.Authorize(c.Request.Context(), models.Role(role), module, action)
		if err != nil {
			engine.logger.Error("authorize failed", zap.Error(err), zap.String("module", module))
			response.Internal(c, "authorization check failed")
			c.Abort()
			return
		}
		if !allowed {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
