package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// SchemaEmbeddingDimensions is the width of the chunks.embedding column.
// Changing it requires a migration.
const SchemaEmbeddingDimensions = 1536

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"4"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbedBatchSize      int    `envconfig:"EMBED_BATCH_SIZE" default:"5"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"250"`
	TopK         int `envconfig:"TOP_K" default:"10"`

	PerFeedLimit int    `envconfig:"PER_FEED_LIMIT" default:"5"`
	Workers      int    `envconfig:"WORKERS" default:"5"`
	HNBaseURL    string `envconfig:"HN_BASE_URL" default:"http://hn.algolia.com"`
	ArxivBaseURL string `envconfig:"ARXIV_BASE_URL" default:"http://export.arxiv.org"`
	UserAgent    string `envconfig:"USER_AGENT" default:"gleaner/1.0 (+https://github.com/cloo-solutions/gleaner)"`
	ChromePath   string `envconfig:"CHROME_PATH"`

	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	RenderTimeout    time.Duration `envconfig:"RENDER_TIMEOUT" default:"45s"`
	RenderWait       time.Duration `envconfig:"RENDER_WAIT" default:"2s"`
	EmbedTimeout     time.Duration `envconfig:"EMBED_TIMEOUT" default:"60s"`
	CandidateTimeout time.Duration `envconfig:"CANDIDATE_TIMEOUT" default:"2m"`
	JobPollInterval  time.Duration `envconfig:"JOB_POLL_INTERVAL" default:"5s"`

	// Raw document archive
	S3Endpoint  string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey string        `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string        `envconfig:"S3_BUCKET" default:"gleaner-raw"`
	S3Region    string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3URLExpiry time.Duration `envconfig:"S3_URL_EXPIRY" default:"1h"`

	APIToken  string `envconfig:"API_TOKEN"`
	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GLEANER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid config: CHUNK_OVERLAP (%d) must be in [0, CHUNK_SIZE)", c.ChunkOverlap)
	}
	if c.EmbeddingDimensions != SchemaEmbeddingDimensions {
		return fmt.Errorf("invalid config: EMBEDDING_DIMENSIONS must be %d to match the chunks.embedding column, got %d",
			SchemaEmbeddingDimensions, c.EmbeddingDimensions)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("invalid config: EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid config: WORKERS must be positive, got %d", c.Workers)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasAuth() bool {
	return c.APIToken != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
