package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func NewSourceRepositoryWithTx(tx pgx.Tx) *SourceRepository {
	return &SourceRepository{db: tx}
}

// Create inserts the source and assigns its ID when it has none
func (r *SourceRepository) Create(ctx context.Context, s *domain.Source) error {
	if err := domain.ValidateSource(s); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (id, url, title, type, fetched_at, raw_text, raw_object_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.URL, s.Title, s.Type, s.FetchedAt, s.RawText, nullableString(s.RawObjectKey),
	)
	if err != nil {
		s.ID = ""
		return err
	}
	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSourceNotFound
	}

	var s domain.Source
	var objectKey pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, url, title, type, fetched_at, raw_text, raw_object_key
		 FROM sources WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.URL, &s.Title, &s.Type, &s.FetchedAt, &s.RawText, &objectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	if objectKey.Valid {
		s.RawObjectKey = objectKey.String
	}
	return &s, nil
}

func (r *SourceRepository) Update(ctx context.Context, s *domain.Source) error {
	if err := domain.ValidateSource(s); err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources
		 SET url = $1, title = $2, type = $3, fetched_at = $4, raw_text = $5, raw_object_key = $6
		 WHERE id = $7`,
		s.URL, s.Title, s.Type, s.FetchedAt, s.RawText, nullableString(s.RawObjectKey), s.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// Delete removes the source; its chunks go with it
func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrSourceNotFound
	}

	cmdTag, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// ListWithCursor pages through sources newest first. RawText is not loaded.
func (r *SourceRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Source], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, url, title, type, fetched_at, raw_object_key
			 FROM sources
			 WHERE (fetched_at, id) < ($1, $2)
			 ORDER BY fetched_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, url, title, type, fetched_at, raw_object_key
			 FROM sources
			 ORDER BY fetched_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.Source, 0)
	for rows.Next() {
		var s domain.Source
		var objectKey pgtype.Text
		if err := rows.Scan(&s.ID, &s.URL, &s.Title, &s.Type, &s.FetchedAt, &objectKey); err != nil {
			return nil, err
		}
		if objectKey.Valid {
			s.RawObjectKey = objectKey.String
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pagination.NewPage(items, limit, func(s *domain.Source) (string, time.Time) {
		return s.ID, s.FetchedAt
	}), nil
}
