package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository is the vector store for embedded chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// InsertChunks writes chunks with their embeddings in a single batch.
// embeddings[i] belongs to chunks[i].
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			`INSERT INTO chunks (source_id, source_url, source_title, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			nullableString(c.SourceID), c.SourceURL, c.SourceTitle, c.Index, c.Text, pgvector.NewVector(embeddings[i]),
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range chunks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return br.Close()
}

// SearchByEmbedding returns the chunks nearest to embedding by cosine
// distance. Score is 1 - distance.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievalResult, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT source_id::text, source_url, source_title, chunk_index, content,
		        1 - (embedding <=> $1) AS score
		 FROM chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.RetrievalResult, 0, limit)
	for rows.Next() {
		var res domain.RetrievalResult
		var sourceID pgtype.Text
		var score float64
		if err := rows.Scan(&sourceID, &res.Chunk.SourceURL, &res.Chunk.SourceTitle, &res.Chunk.Index, &res.Chunk.Text, &score); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			res.Chunk.SourceID = sourceID.String
		}
		res.Score = float32(score)
		results = append(results, res)
	}

	return results, rows.Err()
}

func (r *ChunkRepository) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks WHERE source_id = $1`, sourceID).Scan(&n)
	return n, err
}

func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}
