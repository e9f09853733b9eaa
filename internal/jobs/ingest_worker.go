package jobs

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"go.uber.org/zap"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	claimBatchSize = 1
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending moves pending jobs to processing and returns them
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error
	Complete(ctx context.Context, id string, sourceCount, chunksIndexed int) error
	IncrementRetries(ctx context.Context, id string) error
}

// PassRunner runs one pipeline pass
type PassRunner interface {
	Run(ctx context.Context, q service.TopicQuery) (*service.PassResult, error)
}

// IngestWorker runs queued pipeline passes
type IngestWorker struct {
	repo     IngestJobRepository
	pipeline PassRunner
	logger   *zap.Logger
}

func NewIngestWorker(repo IngestJobRepository, pipeline PassRunner, logger *zap.Logger) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		pipeline: pipeline,
		logger:   logging.OrNop(logger),
	}
}

// ProcessJobs implements the JobProcessor interface. Passes are long, so
// one job is claimed per tick.
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	w.logger.Info("processing pending ingest jobs", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error("error processing job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestWorker.processJob", telemetry.SpanAttributes{
		JobID:     job.ID,
		Query:     job.FullQuery,
		Operation: "ingest",
	})
	defer span.End()

	w.logger.Info("processing job", zap.String("job_id", job.ID), zap.String("query", job.FullQuery))

	result, err := w.pipeline.Run(ctx, service.TopicQuery{
		Short: job.ShortQuery,
		Full:  job.FullQuery,
		TopK:  job.TopK,
	})
	if err != nil {
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.Complete(ctx, job.ID, len(result.Sources), result.ChunksIndexed); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	w.logger.Info("job completed",
		zap.String("job_id", job.ID),
		zap.Int("sources", len(result.Sources)),
		zap.Int("chunks_indexed", result.ChunksIndexed),
	)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	w.logger.Warn("job failed", zap.String("job_id", job.ID), zap.Error(jobErr))

	// A rejected query fails the same way on every attempt.
	if domain.IsValidation(jobErr) {
		errMsg := fmt.Sprintf("invalid job: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		w.logger.Error("job exceeded max retries, marking as failed",
			zap.String("job_id", job.ID),
			zap.Int("max_retries", MaxRetries),
		)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	w.logger.Info("job will be retried",
		zap.String("job_id", job.ID),
		zap.Int32("attempt", job.Retries+1),
		zap.Int("max_retries", MaxRetries),
	)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
