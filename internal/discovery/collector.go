package discovery

import (
	"context"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultPerFeedLimit = 5

// FeedSource yields at most limit candidates for query
type FeedSource interface {
	Candidates(ctx context.Context, query string, limit int) ([]domain.CandidateURL, error)
}

// Collector gathers candidates from the keyword feed and the academic feed
type Collector struct {
	keyword      FeedSource
	academic     FeedSource
	perFeedLimit int
	logger       *zap.Logger
}

func NewCollector(keyword, academic FeedSource, perFeedLimit int, logger *zap.Logger) *Collector {
	if perFeedLimit <= 0 {
		perFeedLimit = DefaultPerFeedLimit
	}
	return &Collector{
		keyword:      keyword,
		academic:     academic,
		perFeedLimit: perFeedLimit,
		logger:       logging.OrNop(logger),
	}
}

// Collect queries both feeds concurrently. A failing feed contributes no
// candidates. Keyword candidates come first, duplicates are kept.
func (c *Collector) Collect(ctx context.Context, shortQuery, fullQuery string) []domain.CandidateURL {
	var keywordHits, academicHits []domain.CandidateURL

	var g errgroup.Group
	g.Go(func() error {
		keywordHits = c.query(ctx, c.keyword, FeedHackerNews, shortQuery)
		return nil
	})
	g.Go(func() error {
		academicHits = c.query(ctx, c.academic, FeedArxiv, fullQuery)
		return nil
	})
	_ = g.Wait()

	c.logger.Info("collected candidates",
		zap.Int(FeedHackerNews, len(keywordHits)),
		zap.Int(FeedArxiv, len(academicHits)),
	)

	out := make([]domain.CandidateURL, 0, len(keywordHits)+len(academicHits))
	out = append(out, keywordHits...)
	return append(out, academicHits...)
}

func (c *Collector) query(ctx context.Context, feed FeedSource, name, query string) []domain.CandidateURL {
	if feed == nil || query == "" {
		return nil
	}
	candidates, err := feed.Candidates(ctx, query, c.perFeedLimit)
	if err != nil {
		c.logger.Warn("feed failed", zap.String("feed", name), zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(candidates) > c.perFeedLimit {
		candidates = candidates[:c.perFeedLimit]
	}
	return candidates
}
