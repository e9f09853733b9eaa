package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultHackerNewsBaseURL = "http://hn.algolia.com"

// HNHit is a single story returned by the Algolia search API
type HNHit struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	URL         *string  `json:"url"`
	Points      int      `json:"points"`
	NumComments int      `json:"num_comments"`
	CreatedAt   string   `json:"created_at"`
	ObjectID    string   `json:"objectID"`
	Tags        []string `json:"_tags"`
}

// HNResponse is the Algolia search response body
type HNResponse struct {
	Hits []HNHit `json:"hits"`
}

// HackerNewsClient searches stories through the Algolia API
type HackerNewsClient struct {
	baseURL string
	getter  Getter
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewHackerNewsClient(baseURL string, getter Getter, logger *zap.Logger) *HackerNewsClient {
	if baseURL == "" {
		baseURL = DefaultHackerNewsBaseURL
	}
	return &HackerNewsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		getter:  getter,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logging.OrNop(logger),
	}
}

// Search returns the stories matching query
func (c *HackerNewsClient) Search(ctx context.Context, query string) (*HNResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	endpoint := c.baseURL + "/api/v1/search?" + params.Encode()

	resp, err := c.getter.FetchBytes(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query hacker news: %w", err)
	}

	var out HNResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode hacker news response: %w", err)
	}

	c.logger.Debug("hacker news search", zap.String("query", query), zap.Int("hits", len(out.Hits)))
	return &out, nil
}

// Candidates runs Search and keeps the linked URLs of the first limit hits.
// Text posts without a URL are skipped after the cap is applied.
func (c *HackerNewsClient) Candidates(ctx context.Context, query string, limit int) ([]domain.CandidateURL, error) {
	resp, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := resp.Hits
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	candidates := make([]domain.CandidateURL, 0, len(hits))
	for _, hit := range hits {
		if hit.URL == nil || *hit.URL == "" {
			continue
		}
		candidates = append(candidates, domain.CandidateURL{URL: *hit.URL, Feed: FeedHackerNews})
	}
	return candidates, nil
}
