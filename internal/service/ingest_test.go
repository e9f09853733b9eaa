package service

import (
	"context"
	"testing"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestJobRepo struct {
	mock.Mock
}

func (m *MockIngestJobRepo) Create(ctx context.Context, job *domain.IngestJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockIngestJobRepo) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

type fixedUUID string

func (f fixedUUID) NewString() string { return string(f) }

func TestIngestService_Enqueue(t *testing.T) {
	repo := new(MockIngestJobRepo)
	svc := NewIngestServiceWithUUIDGen(repo, fixedUUID("job-1"))

	repo.On("Create", mock.Anything, mock.MatchedBy(func(j *domain.IngestJob) bool {
		return j.ID == "job-1" &&
			j.Status == domain.IngestJobStatusPending &&
			j.ShortQuery == "pgvector" &&
			j.FullQuery == "how does pgvector index embeddings" &&
			j.TopK == 7
	})).Return(nil)

	job, err := svc.Enqueue(context.Background(), TopicQuery{Short: "pgvector", Full: "how does pgvector index embeddings", TopK: 7})

	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.False(t, job.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestIngestService_Enqueue_EmptyQuery(t *testing.T) {
	repo := new(MockIngestJobRepo)
	svc := NewIngestService(repo)

	_, err := svc.Enqueue(context.Background(), TopicQuery{Short: "pgvector"})

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestService_GetJob(t *testing.T) {
	repo := new(MockIngestJobRepo)
	svc := NewIngestService(repo)

	repo.On("GetByID", mock.Anything, "nope").Return(nil, domain.ErrIngestJobNotFound)

	_, err := svc.GetJob(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}
