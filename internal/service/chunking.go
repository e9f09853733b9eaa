package service

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/gleaner/internal/domain"
)

// ChunkConfig controls the token windows produced for each source.
// Sizes are counted in whitespace-delimited tokens.
type ChunkConfig struct {
	ChunkSize   int
	OverlapSize int

	// MaxTokenRunes drops longer tokens (inline base64, minified code) before
	// windowing so a chunk stays within the embedding model's input limit.
	// Zero means DefaultMaxTokenRunes.
	MaxTokenRunes int
}

const DefaultMaxTokenRunes = 100

// DefaultChunkConfig provides the deployed defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:     1000,
		OverlapSize:   250,
		MaxTokenRunes: DefaultMaxTokenRunes,
	}
}

// Validate enforces 0 <= OverlapSize < ChunkSize
func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 || c.OverlapSize < 0 || c.OverlapSize >= c.ChunkSize {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// Stride is the distance between the starts of consecutive windows
func (c ChunkConfig) Stride() int {
	return c.ChunkSize - c.OverlapSize
}

// Chunker splits source text into overlapping token windows
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxTokenRunes <= 0 {
		cfg.MaxTokenRunes = DefaultMaxTokenRunes
	}
	return &Chunker{cfg: cfg}, nil
}

func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// Chunk splits the source's text and stamps every chunk with the source's
// identity. SourceID stays empty for sources that were never persisted.
func (c *Chunker) Chunk(source *domain.Source) []domain.Chunk {
	if source == nil {
		return nil
	}
	texts := ChunkTokens(dropLongTokens(source.RawText, c.cfg.MaxTokenRunes), c.cfg)
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			SourceID:    source.ID,
			SourceURL:   source.URL,
			SourceTitle: source.Title,
			Index:       i,
			Text:        text,
		}
	}
	return chunks
}

// ChunkTokens returns ceil(total/stride) windows of at most ChunkSize tokens,
// window i starting at token i*stride. Text of at most ChunkSize tokens is a
// single window. cfg must be valid.
func ChunkTokens(text string, cfg ChunkConfig) []string {
	tokens := strings.Fields(text)
	total := len(tokens)
	if total == 0 {
		return nil
	}
	if total <= cfg.ChunkSize {
		return []string{strings.Join(tokens, " ")}
	}

	stride := cfg.Stride()
	n := (total + stride - 1) / stride
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		start := i * stride
		end := min(start+cfg.ChunkSize, total)
		out = append(out, strings.Join(tokens[start:end], " "))
	}
	return out
}

func dropLongTokens(text string, maxRunes int) string {
	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= maxRunes {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}
