package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/gleaner/internal/config"
	"github.com/cloo-solutions/gleaner/internal/database"
	"github.com/cloo-solutions/gleaner/internal/discovery"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/extract"
	"github.com/cloo-solutions/gleaner/internal/fetcher"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/cloo-solutions/gleaner/internal/openai"
	"github.com/cloo-solutions/gleaner/internal/repository"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/cloo-solutions/gleaner/internal/storage"
	"github.com/cloo-solutions/gleaner/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errIndexUnavailable = domain.NewDomainError(domain.ErrCodeUnavailable, "embedding index not configured: GLEANER_OPENAI_API_KEY required")

// app holds every component built from one Config
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool

	sourceRepo *repository.SourceRepository
	chunkRepo  *repository.ChunkRepository
	jobRepo    *repository.IngestJobRepository

	objects  *storage.S3Client
	index    *service.EmbeddingIndex
	pipeline *service.Pipeline
	sources  *service.SourceService

	shutdown []func()
}

// newApp loads configuration and connects the database. The embedding index
// and pipeline are built only when an OpenAI key is configured; the raw
// archive only when S3 is configured.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := logging.New(cfg.Debug || debug)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.shutdown = append(a.shutdown, func() { _ = logger.Sync() })

	if cfg.HasSentry() {
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}
		flush, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		}, logger)
		if err == nil {
			a.shutdown = append(a.shutdown, flush)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pool = pool
	a.shutdown = append(a.shutdown, pool.Close)
	logger.Debug("connected to database")

	a.sourceRepo = repository.NewSourceRepository(pool)
	a.chunkRepo = repository.NewChunkRepository(pool)
	a.jobRepo = repository.NewIngestJobRepository(pool)

	var objects service.ObjectStore
	var archive service.RawArchive
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:          cfg.S3Endpoint,
			Region:            cfg.S3Region,
			AccessKeyID:       cfg.S3AccessKey,
			SecretAccessKey:   cfg.S3SecretKey,
			Bucket:            cfg.S3Bucket,
			UsePathStyle:      true,
			DownloadURLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("raw archive ready", zap.String("bucket", cfg.S3Bucket))
		a.objects = s3Client
		objects = s3Client
		archive = s3Client
	}
	a.sources = service.NewSourceService(a.sourceRepo, a.chunkRepo, objects, logger)

	if cfg.HasOpenAI() {
		if err := a.buildPipeline(archive); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *app) buildPipeline(archive service.RawArchive) error {
	cfg := a.cfg

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	a.index = service.NewEmbeddingIndex(embedder, a.chunkRepo, service.IndexConfig{
		BatchSize:    cfg.EmbedBatchSize,
		EmbedTimeout: cfg.EmbedTimeout,
	}, a.logger)

	f := fetcher.New(fetcher.Config{Timeout: cfg.FetchTimeout, UserAgent: cfg.UserAgent}, a.logger)
	collector := discovery.NewCollector(
		discovery.NewHackerNewsClient(cfg.HNBaseURL, f, a.logger),
		discovery.NewArxivClient(cfg.ArxivBaseURL, f, a.logger),
		cfg.PerFeedLimit,
		a.logger,
	)
	renderer := extract.NewChromeRenderer(extract.ChromeConfig{
		ExecPath:  cfg.ChromePath,
		UserAgent: cfg.UserAgent,
		Wait:      cfg.RenderWait,
		Timeout:   cfg.RenderTimeout,
	}, a.logger)
	extractor := extract.NewExtractor(f, renderer, nil, a.logger)

	chunker, err := service.NewChunker(service.ChunkConfig{ChunkSize: cfg.ChunkSize, OverlapSize: cfg.ChunkOverlap})
	if err != nil {
		return err
	}

	pipeline, err := service.NewPipeline(collector, extractor, a.sourceRepo, archive, chunker, a.index, service.PipelineConfig{
		Workers:          cfg.Workers,
		CandidateTimeout: cfg.CandidateTimeout,
		TopK:             cfg.TopK,
	}, a.logger)
	if err != nil {
		return err
	}
	a.pipeline = pipeline
	a.shutdown = append(a.shutdown, pipeline.Release)
	return nil
}

// requireIndex fails for commands that embed when no OpenAI key is configured
func (a *app) requireIndex() error {
	if a.pipeline == nil {
		return errIndexUnavailable
	}
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		a.shutdown[i]()
	}
	a.shutdown = nil
}

// unavailableIndex stands in for the pipeline and index when embeddings are
// not configured
type unavailableIndex struct{}

func (unavailableIndex) Run(context.Context, service.TopicQuery) (*service.PassResult, error) {
	return nil, errIndexUnavailable
}

func (unavailableIndex) Search(context.Context, string, int) ([]domain.RetrievalResult, error) {
	return nil, errIndexUnavailable
}
