// Package discovery turns a topic query into candidate URLs by querying
// public discovery feeds.
package discovery

import (
	"context"

	"github.com/cloo-solutions/gleaner/internal/fetcher"
)

const (
	FeedHackerNews = "hackernews"
	FeedArxiv      = "arxiv"
)

// Getter retrieves a URL as raw bytes. *fetcher.Fetcher satisfies it.
type Getter interface {
	FetchBytes(ctx context.Context, url string) (*fetcher.Response, error)
}
