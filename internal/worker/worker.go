package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eventslot/backend/internal/export"
	"github.com/eventslot/backend/internal/models"
	"github.com/eventslot/backend/pkg/queue"
	"github.com/eventslot/backend/pkg/storage"
)

// Processor consumes export and email jobs: CSV dumps go to S3, emails are
// delivered and recorded in email_logs.
type Processor struct {
	exports *export.Repository
	pool    *pgxpool.Pool
	s3      *storage.S3
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(exports *export.Repository, pool *pgxpool.Pool, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{exports: exports, pool: pool, s3: s3, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeExport:
		return p.processExport(ctx, job)
	case queue.JobTypeEmail:
		return p.processEmail(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processExport(ctx context.Context, job *queue.Job) error {
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	e, err := p.exports.GetByID(ctx, payload.ExportID)
	if err != nil {
		return fmt.Errorf("export not found: %s", payload.ExportID)
	}
	if e.Status == models.ExportCompleted {
		p.logger.Info("export already completed", zap.String("export_id", e.ID.String()))
		return nil
	}
	if err := p.exports.MarkProcessing(ctx, e.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	rows, err := p.exports.Rows(ctx)
	if err != nil {
		return p.failExport(ctx, e.ID, fmt.Errorf("query rows: %w", err))
	}

	var buf bytes.Buffer
	count, err := export.WriteCSV(&buf, rows)
	if err != nil {
		return p.failExport(ctx, e.ID, fmt.Errorf("write csv: %w", err))
	}

	key := storage.ExportKey(e.ID.String())
	if _, err := p.s3.Upload(ctx, p.s3.ExportsBucket(), key, "text/csv", &buf); err != nil {
		return p.failExport(ctx, e.ID, fmt.Errorf("s3 upload: %w", err))
	}

	if err := p.exports.MarkCompleted(ctx, e.ID, key, count); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.logger.Info("export completed", zap.String("export_id", e.ID.String()), zap.Int("rows", count))
	return nil
}

// failExport records the failure on the export row and returns the error
// so the queue still retries the job.
func (p *Processor) failExport(ctx context.Context, id uuid.UUID, cause error) error {
	if err := p.exports.MarkFailed(ctx, id, cause.Error()); err != nil {
		p.logger.Error("mark export failed", zap.Error(err), zap.String("export_id", id.String()))
	}
	return cause
}

func (p *Processor) processEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// Delivery is a log line here; wiring an SMTP provider replaces this.
	p.logger.Info("sending booking email",
		zap.String("to", payload.RecipientEmail),
		zap.String("type", payload.EmailType),
		zap.String("booking_id", payload.BookingID.String()))

	const q = `
		INSERT INTO email_logs (booking_id, recipient, email_type, subject, sent_at)
		VALUES ($1, $2, $3, $4, NOW())`
	_, err := p.pool.Exec(ctx, q, payload.BookingID, payload.RecipientEmail, payload.EmailType, payload.Subject)
	if err != nil {
		return fmt.Errorf("record email log: %w", err)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, source, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job, source); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
