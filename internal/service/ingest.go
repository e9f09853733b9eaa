package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"github.com/google/uuid"
)

// IngestJobRepositoryInterface defines the repository interface for ingest job persistence
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestService queues pipeline passes for the background worker
type IngestService struct {
	jobs    IngestJobRepositoryInterface
	uuidGen UUIDGenerator
}

func NewIngestService(jobs IngestJobRepositoryInterface) *IngestService {
	return &IngestService{jobs: jobs, uuidGen: &DefaultUUIDGenerator{}}
}

// NewIngestServiceWithUUIDGen creates an IngestService with a custom UUID generator (for testing)
func NewIngestServiceWithUUIDGen(jobs IngestJobRepositoryInterface, uuidGen UUIDGenerator) *IngestService {
	return &IngestService{jobs: jobs, uuidGen: uuidGen}
}

// Enqueue creates a pending ingest job for q
func (s *IngestService) Enqueue(ctx context.Context, q TopicQuery) (*domain.IngestJob, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Enqueue", telemetry.SpanAttributes{
		Query:     q.Full,
		Operation: "enqueue",
	})
	defer span.End()

	if strings.TrimSpace(q.Full) == "" {
		return nil, domain.ErrEmptyQuery
	}

	job := &domain.IngestJob{
		ID:         s.uuidGen.NewString(),
		ShortQuery: q.Short,
		FullQuery:  q.Full,
		TopK:       q.TopK,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := domain.ValidateIngestJob(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *IngestService) GetJob(ctx context.Context, id string) (*domain.IngestJob, error) {
	return s.jobs.GetByID(ctx, id)
}
