package service

import (
	"context"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/cloo-solutions/gleaner/internal/pagination"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"go.uber.org/zap"
)

const defaultListLimit = 20

// SourceRepositoryInterface defines the repository interface for source persistence
type SourceRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	Delete(ctx context.Context, id string) error
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Source], error)
}

// ChunkCounter counts indexed chunks per source
type ChunkCounter interface {
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// ObjectStore serves and removes archived raw documents
type ObjectStore interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// SourceDetail is a source with the number of chunks indexed for it
type SourceDetail struct {
	Source     *domain.Source
	ChunkCount int
}

type ListSourcesInput struct {
	Cursor string
	Limit  int
}

// SourceService exposes persisted sources. objects may be nil when raw
// archiving is disabled.
type SourceService struct {
	sources SourceRepositoryInterface
	chunks  ChunkCounter
	objects ObjectStore
	logger  *zap.Logger
}

func NewSourceService(sources SourceRepositoryInterface, chunks ChunkCounter, objects ObjectStore, logger *zap.Logger) *SourceService {
	return &SourceService{
		sources: sources,
		chunks:  chunks,
		objects: objects,
		logger:  logging.OrNop(logger),
	}
}

func (s *SourceService) Get(ctx context.Context, id string) (*SourceDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.Get", telemetry.SpanAttributes{
		SourceID:  id,
		Operation: "get",
	})
	defer span.End()

	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.chunks.CountBySource(ctx, id)
	if err != nil {
		return nil, err
	}

	return &SourceDetail{Source: source, ChunkCount: count}, nil
}

func (s *SourceService) List(ctx context.Context, input ListSourcesInput) (*pagination.PageResult[*domain.Source], error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.List", telemetry.SpanAttributes{Operation: "list"})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.sources.ListWithCursor(ctx, cursor, limit)
}

// Delete removes a source and its chunks. The archived raw document is
// removed best-effort.
func (s *SourceService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.Delete", telemetry.SpanAttributes{
		SourceID:  id,
		Operation: "delete",
	})
	defer span.End()

	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sources.Delete(ctx, id); err != nil {
		return err
	}

	if source.RawObjectKey != "" && s.objects != nil {
		if err := s.objects.DeleteObject(ctx, source.RawObjectKey); err != nil {
			s.logger.Warn("failed to delete raw document",
				zap.String("source_id", id),
				zap.String("key", source.RawObjectKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

// RawURL returns a presigned download URL for the archived raw document
func (s *SourceService) RawURL(ctx context.Context, id string) (string, error) {
	if s.objects == nil {
		return "", domain.ErrArchiveNotConfigured
	}

	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if source.RawObjectKey == "" {
		return "", domain.ErrRawDocumentNotFound
	}

	return s.objects.GenerateDownloadURL(ctx, source.RawObjectKey)
}
