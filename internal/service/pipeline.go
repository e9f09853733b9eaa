package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/extract"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	DefaultWorkers          = 5
	DefaultCandidateTimeout = 2 * time.Minute
)

// CandidateCollector proposes candidate URLs for a topic
type CandidateCollector interface {
	Collect(ctx context.Context, shortQuery, fullQuery string) []domain.CandidateURL
}

// DocumentExtractor turns a candidate into text
type DocumentExtractor interface {
	Extract(ctx context.Context, c domain.CandidateURL) (*extract.Document, error)
}

// SourceStore persists extracted sources
type SourceStore interface {
	Create(ctx context.Context, s *domain.Source) error
}

// RawArchive stores the raw bytes of fetched documents and returns their key
type RawArchive interface {
	Archive(ctx context.Context, url string, raw []byte, contentType string) (string, error)
}

// Index writes chunks and answers similarity queries
type Index interface {
	Write(ctx context.Context, chunks []domain.Chunk) (int, error)
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
}

type PipelineConfig struct {
	Workers          int
	CandidateTimeout time.Duration
	TopK             int
}

// TopicQuery drives one pass. Full is the retrieval query and the academic
// feed query; Short feeds the keyword search and falls back to Full.
type TopicQuery struct {
	Short string
	Full  string
	TopK  int
}

// PassResult is the outcome of one pipeline pass
type PassResult struct {
	Candidates    int
	Sources       []domain.Source
	ChunksIndexed int
	Results       []domain.RetrievalResult
}

// Pipeline runs discovery, extraction, chunking and indexing for a topic,
// then retrieves the chunks most similar to it.
type Pipeline struct {
	collector CandidateCollector
	extractor DocumentExtractor
	sources   SourceStore
	archive   RawArchive
	chunker   *Chunker
	index     Index
	pool      *ants.Pool
	cfg       PipelineConfig
	logger    *zap.Logger

	mu sync.Mutex
}

// NewPipeline creates a Pipeline. sources and archive may be nil; without
// them sources are not persisted or archived.
func NewPipeline(
	collector CandidateCollector,
	extractor DocumentExtractor,
	sources SourceStore,
	archive RawArchive,
	chunker *Chunker,
	index Index,
	cfg PipelineConfig,
	logger *zap.Logger,
) (*Pipeline, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = DefaultCandidateTimeout
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if chunker == nil {
		var err error
		chunker, err = NewChunker(DefaultChunkConfig())
		if err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Pipeline{
		collector: collector,
		extractor: extractor,
		sources:   sources,
		archive:   archive,
		chunker:   chunker,
		index:     index,
		pool:      pool,
		cfg:       cfg,
		logger:    logging.OrNop(logger),
	}, nil
}

// Release stops the worker pool
func (p *Pipeline) Release() {
	p.pool.Release()
}

// candidateOutcome is the per-candidate result; source is nil when the
// candidate was dropped
type candidateOutcome struct {
	source *domain.Source
	chunks []domain.Chunk
}

// Run executes one pass. Per-candidate failures are logged and the candidate
// dropped. A failure to write or read the index ends the pass with an error.
// Passes never interleave: chunks written by one pass are visible to its
// retrieval.
func (p *Pipeline) Run(ctx context.Context, q TopicQuery) (*PassResult, error) {
	if strings.TrimSpace(q.Full) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if strings.TrimSpace(q.Short) == "" {
		q.Short = q.Full
	}
	if q.TopK <= 0 {
		q.TopK = p.cfg.TopK
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Run", telemetry.SpanAttributes{
		Query:     q.Full,
		Operation: "pass",
	})
	defer span.End()

	started := time.Now()
	candidates := p.collector.Collect(ctx, q.Short, q.Full)
	p.logger.Info("candidates collected", zap.String("query", q.Short), zap.Int("count", len(candidates)))
	telemetry.AddBreadcrumb(ctx, "pipeline", fmt.Sprintf("collected %d candidates", len(candidates)))

	outcomes, err := p.processCandidates(ctx, candidates)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &PassResult{Candidates: len(candidates)}
	var chunks []domain.Chunk
	for _, o := range outcomes {
		if o.source == nil {
			continue
		}
		result.Sources = append(result.Sources, *o.source)
		chunks = append(chunks, o.chunks...)
	}

	written, err := p.index.Write(ctx, chunks)
	result.ChunksIndexed = written
	if err != nil {
		telemetry.CaptureError(ctx, err)
		span.SetError(err)
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	results, err := p.index.Search(ctx, q.Full, q.TopK)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		span.SetError(err)
		return nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	result.Results = results
	span.SetCount("candidates", result.Candidates)
	span.SetCount("sources", len(result.Sources))
	span.SetCount("chunks_indexed", result.ChunksIndexed)

	p.logger.Info("pass completed",
		zap.String("query", q.Full),
		zap.Int("candidates", result.Candidates),
		zap.Int("sources", len(result.Sources)),
		zap.Int("chunks_indexed", result.ChunksIndexed),
		zap.Int("results", len(result.Results)),
		zap.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (p *Pipeline) processCandidates(ctx context.Context, candidates []domain.CandidateURL) ([]candidateOutcome, error) {
	outcomes := make([]candidateOutcome, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = p.processCandidate(ctx, c)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit candidate: %w", err)
		}
	}
	wg.Wait()

	return outcomes, nil
}

func (p *Pipeline) processCandidate(ctx context.Context, c domain.CandidateURL) candidateOutcome {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CandidateTimeout)
	defer cancel()

	logger := p.logger.With(zap.String("url", c.URL), zap.String("feed", c.Feed))

	doc, err := p.extractor.Extract(ctx, c)
	if err != nil {
		var extErr *domain.ExtractionError
		if errors.As(err, &extErr) {
			logger.Warn("candidate dropped", zap.String("reason", string(extErr.Kind)), zap.Error(err))
		} else {
			logger.Warn("candidate dropped", zap.Error(err))
		}
		return candidateOutcome{}
	}

	source := domain.NewSource(doc.URL, doc.Title, doc.Type, doc.Text)
	if !doc.FetchedAt.IsZero() {
		source.FetchedAt = doc.FetchedAt
	}

	if p.archive != nil && len(doc.Raw) > 0 {
		key, err := p.archive.Archive(ctx, doc.URL, doc.Raw, doc.ContentType)
		if err != nil {
			logger.Warn("failed to archive raw document", zap.Error(err))
		} else {
			source.RawObjectKey = key
		}
	}

	if p.sources != nil {
		if err := p.sources.Create(ctx, source); err != nil {
			source.ID = ""
			logger.Error("failed to persist source, indexing without source id",
				zap.String("code", domain.ErrCodePersistenceFailure),
				zap.Error(err),
			)
		}
	}

	chunks := p.chunker.Chunk(source)
	logger.Debug("candidate extracted",
		zap.String("kind", doc.Kind),
		zap.String("source_id", source.ID),
		zap.Int("chars", len(doc.Text)),
		zap.Int("chunks", len(chunks)),
	)
	return candidateOutcome{source: source, chunks: chunks}
}

// BuildContext renders retrieved chunks as the context block handed to text
// generation
func BuildContext(results []domain.RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Source: %s\nURL: %s\n\n%s", r.Chunk.SourceTitle, r.Chunk.SourceURL, r.Chunk.Text)
	}
	return strings.Join(parts, "\n")
}
