package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultArxivBaseURL = "http://export.arxiv.org"
	arxivMaxResults     = 10
)

// ArxivEntry is one paper from the arXiv Atom feed
type ArxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []ArxivEntry `xml:"entry"`
}

// ArxivClient queries the arXiv export API
type ArxivClient struct {
	baseURL string
	getter  Getter
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewArxivClient(baseURL string, getter Getter, logger *zap.Logger) *ArxivClient {
	if baseURL == "" {
		baseURL = DefaultArxivBaseURL
	}
	return &ArxivClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		getter:  getter,
		// arXiv asks API clients for one request every three seconds
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		logger:  logging.OrNop(logger),
	}
}

// Search returns the entries matching query across all fields
func (c *ArxivClient) Search(ctx context.Context, query string) ([]ArxivEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprint(arxivMaxResults))
	endpoint := c.baseURL + "/api/query?" + params.Encode()

	resp, err := c.getter.FetchBytes(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query arxiv: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv feed: %w", err)
	}

	c.logger.Debug("arxiv search", zap.String("query", query), zap.Int("entries", len(feed.Entries)))
	return feed.Entries, nil
}

// Candidates runs Search and maps the first limit entries to their PDF URLs
func (c *ArxivClient) Candidates(ctx context.Context, query string, limit int) ([]domain.CandidateURL, error) {
	entries, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	candidates := make([]domain.CandidateURL, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		candidates = append(candidates, domain.CandidateURL{
			URL:   PDFURLFromArxivID(e.ID),
			Title: strings.Join(strings.Fields(e.Title), " "),
			Feed:  FeedArxiv,
		})
	}
	return candidates, nil
}

// PDFURLFromArxivID maps an abstract page id to its PDF document URL.
//
//	http://arxiv.org/abs/2310.00266v1 -> http://arxiv.org/pdf/2310.00266v1.pdf
func PDFURLFromArxivID(id string) string {
	return strings.Replace(strings.TrimSpace(id), "/abs/", "/pdf/", 1) + ".pdf"
}
