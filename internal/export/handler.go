package export

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/middleware"
	"github.com/eventslot/backend/pkg/queue"
	"github.com/eventslot/backend/pkg/response"
	"github.com/eventslot/backend/pkg/storage"
)

// Enqueuer submits export jobs to the worker. Satisfied by queue.Queue.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, p queue.ExportPayload) error
}

// Handler exposes the bookings export endpoints. Admin only via routing.
type Handler struct {
	repo   *Repository
	jobs   Enqueuer
	store  *storage.S3
	logger *zap.Logger
}

// NewHandler creates an export handler. store may be nil when S3 is not
// configured; downloads then return the object key without a URL.
func NewHandler(repo *Repository, jobs Enqueuer, store *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jobs: jobs, store: store, logger: logger}
}

// Create handles POST /api/bookings/export: records the request and hands
// it to the worker.
func (h *Handler) Create(c *gin.Context) {
	userID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e, err := h.repo.Create(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("create export failed", zap.Error(err))
		response.Internal(c, "failed to create export")
		return
	}

	err = h.jobs.EnqueueExport(c.Request.Context(), queue.ExportPayload{
		ExportID:    e.ID,
		RequestedBy: userID,
	})
	if err != nil {
		h.logger.Error("enqueue export failed", zap.Error(err), zap.String("export_id", e.ID.String()))
		if ferr := h.repo.MarkFailed(c.Request.Context(), e.ID, "failed to enqueue export job"); ferr != nil {
			h.logger.Error("mark export failed", zap.Error(ferr))
		}
		response.Internal(c, "failed to enqueue export")
		return
	}

	response.Created(c, e)
}

// StatusResponse is the export status payload, with a presigned download
// link once the dump is ready.
type StatusResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	RowCount    int       `json:"row_count"`
	Error       string    `json:"error,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
}

// GetByID handles GET /api/exports/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "export not found")
			return
		}
		h.logger.Error("get export failed", zap.Error(err))
		response.Internal(c, "failed to fetch export")
		return
	}

	resp := StatusResponse{
		ID:       e.ID,
		Status:   string(e.Status),
		RowCount: e.RowCount,
		Error:    e.Error,
	}
	if e.ObjectKey != "" && h.store != nil {
		url, err := h.store.GeneratePresignedDownloadURL(c.Request.Context(),
			h.store.ExportsBucket(), e.ObjectKey, h.store.PresignExpire())
		if err != nil {
			h.logger.Error("presign export url failed", zap.Error(err), zap.String("export_id", e.ID.String()))
		} else {
			resp.DownloadURL = url
		}
	}
	response.OK(c, resp)
}
