package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/pkg/jobs"
)

// AuditDispatcher writes audit rows from a background worker pool so request
// handlers return as soon as their own transaction commits.
type AuditDispatcher struct {
	store  auditLogger
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditDispatcher wraps store with an asynchronous queue.
func NewAuditDispatcher(store auditLogger, cfg jobs.QueueConfig) *AuditDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &AuditDispatcher{store: store, logger: cfg.Logger}
	d.queue = jobs.NewQueue[models.AuditLog]("audit", d.write, cfg)
	return d
}

// Start launches the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes buffered rows and waits for the workers.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// CreateAuditLog queues the row. When the queue is full or stopped the row is written inline.
func (d *AuditDispatcher) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	err := d.queue.TryEnqueue(log.ID, *log)
	if err == nil {
		return nil
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		d.logger.Warn("audit queue full, writing inline", zap.String("action", log.Action))
	}
	return d.store.CreateAuditLog(ctx, log)
}

func (d *AuditDispatcher) write(ctx context.Context, job jobs.Job[models.AuditLog]) error {
	entry := job.Payload
	return d.store.CreateAuditLog(ctx, &entry)
}
