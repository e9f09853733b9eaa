//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/gleaner/internal/api/handlers"
	"github.com/cloo-solutions/gleaner/internal/discovery"
	"github.com/cloo-solutions/gleaner/internal/extract"
	"github.com/cloo-solutions/gleaner/internal/fetcher"
	"github.com/cloo-solutions/gleaner/internal/openai"
	"github.com/cloo-solutions/gleaner/internal/repository"
	"github.com/cloo-solutions/gleaner/internal/server"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/cloo-solutions/gleaner/internal/storage"
	"github.com/cloo-solutions/gleaner/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const apiToken = "e2e-token"

// Env is a running gleaner API backed by real Postgres and S3 containers.
// Discovery feeds, article hosts and the embedding API are local fakes.
type Env struct {
	T         *testing.T
	Ctx       context.Context
	Pool      *pgxpool.Pool
	S3        *storage.S3Client
	Server    *httptest.Server
	Web       *httptest.Server
	Pipeline  *service.Pipeline
	Client    *http.Client
	closers   []func()
}

// Envelope is the API success/error body
type Envelope struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
}

func SetupEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "gleaner-e2e",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, s3Client.EnsureBucket(ctx))

	web := newWebServer()

	sourceRepo := repository.NewSourceRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)

	embedder := openai.NewClientWithAPI(bagOfWords{dim: openai.DefaultEmbeddingDimensions}, 0)
	index := service.NewEmbeddingIndex(embedder, chunkRepo, service.IndexConfig{}, logger)

	f := fetcher.New(fetcher.Config{Timeout: 5 * time.Second}, logger)
	collector := discovery.NewCollector(
		discovery.NewHackerNewsClient(web.URL+"/hn", f, logger),
		discovery.NewArxivClient(web.URL+"/arxiv", f, logger),
		discovery.DefaultPerFeedLimit,
		logger,
	)
	extractor := extract.NewExtractor(f, nil, nil, logger)
	chunker, err := service.NewChunker(service.ChunkConfig{ChunkSize: 400, OverlapSize: 80})
	require.NoError(t, err)

	pipeline, err := service.NewPipeline(collector, extractor, sourceRepo, s3Client, chunker, index,
		service.PipelineConfig{Workers: 3, TopK: 5}, logger)
	require.NoError(t, err)

	router := server.NewRouter(server.RouterConfig{
		APIToken:      apiToken,
		Logger:        logger,
		HealthHandler: handlers.NewHealthHandler(pool),
		IngestHandler: handlers.NewIngestHandler(pipeline, service.NewIngestService(jobRepo)),
		SearchHandler: handlers.NewSearchHandler(index),
		SourceHandler: handlers.NewSourceHandler(service.NewSourceService(sourceRepo, chunkRepo, s3Client, logger)),
	})
	srv := httptest.NewServer(router)

	env := &Env{
		T:        t,
		Ctx:      ctx,
		Pool:     pool,
		S3:       s3Client,
		Server:   srv,
		Web:      web,
		Pipeline: pipeline,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
	env.closers = []func(){
		srv.Close,
		pipeline.Release,
		web.Close,
		pool.Close,
		func() { _ = s3C.Terminate(ctx) },
		func() { _ = pgC.Terminate(ctx) },
	}
	return env
}

func (e *Env) Cleanup() {
	for _, c := range e.closers {
		c()
	}
}

func (e *Env) Do(method, path string, body interface{}, authenticated bool) *Envelope {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reader)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+apiToken)
	}

	resp, err := e.Client.Do(req)
	require.NoError(e.T, err)
	defer resp.Body.Close()

	env := &Envelope{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.T, err)
	if len(raw) > 0 {
		require.NoError(e.T, json.Unmarshal(raw, env), string(raw))
	}
	return env
}

func (e *Env) Decode(env *Envelope, v interface{}) {
	e.T.Helper()
	require.NoError(e.T, json.Unmarshal(env.Data, v), string(env.Data))
}

// articles served by the fake web host, keyed by path
var articles = map[string]string{
	"/posts/vector-search": "Vector search with pgvector",
	"/posts/hnsw":          "HNSW graphs for approximate nearest neighbours",
	"/posts/cooking":       "Slow cooked beans",
}

func articleBody(title string) string {
	topic := strings.ToLower(title)
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d about %s. This article explains %s in practical detail for engineers.</p>\n", i, topic, topic)
	}
	return fmt.Sprintf("<html><head><title>%s</title></head><body><article><h1>%s</h1>%s</article></body></html>", title, title, b.String())
}

// newWebServer serves the keyword feed, an empty academic feed and the
// articles. One linked story returns 404 so the pass has a partial failure.
func newWebServer() *httptest.Server {
	mux := http.NewServeMux()
	var base string

	mux.HandleFunc("/hn/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		hits := []map[string]interface{}{}
		for path, title := range articles {
			u := base + path
			hits = append(hits, map[string]interface{}{"title": title, "url": u, "objectID": path})
		}
		missing := base + "/posts/missing"
		hits = append(hits, map[string]interface{}{"title": "Gone", "url": missing, "objectID": "missing"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"hits": hits})
	})
	mux.HandleFunc("/arxiv/api/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})
	for path, title := range articles {
		body := articleBody(title)
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, body)
		})
	}

	srv := httptest.NewServer(mux)
	base = srv.URL
	return srv
}

// bagOfWords embeds text by hashing each lowercased word into a bucket, so
// texts sharing vocabulary have high cosine similarity.
type bagOfWords struct {
	dim int
}

func (b bagOfWords) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, b.dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(word, ".,:;!?")))
			v[int(h.Sum32())%b.dim]++
		}
		v[0] += 0.01
		out[i] = v
	}
	return out, nil
}
