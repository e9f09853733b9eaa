package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"go.uber.org/zap"
)

const (
	DefaultEmbedBatchSize = 5
	DefaultTopK           = 10
)

// EmbeddingClient generates embeddings, one vector per input text, in order
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks and answers nearest-neighbor queries
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error
	SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievalResult, error)
}

// IndexConfig controls batching and timeouts of the embedding index
type IndexConfig struct {
	BatchSize    int
	EmbedTimeout time.Duration
}

// EmbeddingIndex embeds chunks and stores them in a vector store
type EmbeddingIndex struct {
	client EmbeddingClient
	store  ChunkStore
	cfg    IndexConfig
	logger *zap.Logger
}

func NewEmbeddingIndex(client EmbeddingClient, store ChunkStore, cfg IndexConfig, logger *zap.Logger) *EmbeddingIndex {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	return &EmbeddingIndex{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: logging.OrNop(logger),
	}
}

// Write embeds and stores chunks batch by batch, one batch at a time. The
// first failing batch stops the write with a *domain.EmbeddingError; batches
// before it stay stored. It returns the number of chunks written.
func (x *EmbeddingIndex) Write(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "index.write", telemetry.SpanAttributes{Operation: "write"})
	defer span.End()

	written := 0
	for batch, start := 0, 0; start < len(chunks); batch, start = batch+1, start+x.cfg.BatchSize {
		end := min(start+x.cfg.BatchSize, len(chunks))
		if err := x.writeBatch(ctx, chunks[start:end]); err != nil {
			embErr := &domain.EmbeddingError{Batch: batch, Written: written, Err: err}
			span.SetError(embErr)
			x.logger.Error("embedding batch failed",
				zap.Int("batch", batch),
				zap.Int("written", written),
				zap.Int("remaining", len(chunks)-written),
				zap.Error(err),
			)
			return written, embErr
		}
		written += end - start
	}

	x.logger.Info("chunks indexed", zap.Int("count", written))
	return written, nil
}

func (x *EmbeddingIndex) writeBatch(ctx context.Context, batch []domain.Chunk) error {
	if x.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.EmbedTimeout)
		defer cancel()
	}

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	embeddings, err := x.client.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if err := x.store.InsertChunks(ctx, batch, embeddings); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// Search returns up to k chunks ranked by similarity to query. Fewer stored
// chunks than k is not an error.
func (x *EmbeddingIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultTopK
	}

	ctx, span := telemetry.StartSpan(ctx, "index.search", telemetry.SpanAttributes{Query: query, Operation: "search"})
	defer span.End()

	if x.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.EmbedTimeout)
		defer cancel()
	}

	embedding, err := x.client.GenerateEmbedding(ctx, query)
	if err != nil {
		embErr := &domain.EmbeddingError{Err: fmt.Errorf("failed to embed query: %w", err)}
		span.SetError(embErr)
		return nil, embErr
	}

	results, err := x.store.SearchByEmbedding(ctx, embedding, k)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	x.logger.Debug("index search", zap.String("query", query), zap.Int("k", k), zap.Int("results", len(results)))
	return results, nil
}
