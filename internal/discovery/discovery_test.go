package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const hnBody = `{"hits":[
 {"title":"One","author":"a","url":"https://one.example/post","points":10,"num_comments":2,"created_at":"2024-01-01T00:00:00Z","objectID":"1","_tags":["story"]},
 {"title":"Ask HN","author":"b","url":null,"points":3,"num_comments":1,"created_at":"2024-01-01T00:00:00Z","objectID":"2","_tags":["story","ask_hn"]},
 {"title":"Three","author":"c","url":"https://three.example","points":1,"num_comments":0,"created_at":"2024-01-01T00:00:00Z","objectID":"3","_tags":["story"]},
 {"title":"Four","author":"d","url":"https://four.example","points":1,"num_comments":0,"created_at":"2024-01-01T00:00:00Z","objectID":"4","_tags":["story"]},
 {"title":"Five","author":"e","url":"https://five.example","points":1,"num_comments":0,"created_at":"2024-01-01T00:00:00Z","objectID":"5","_tags":["story"]},
 {"title":"Six","author":"f","url":"https://six.example","points":1,"num_comments":0,"created_at":"2024-01-01T00:00:00Z","objectID":"6","_tags":["story"]}
]}`

const arxivBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2310.00266v1</id>
    <title>Attention Is
      All You Need Again</title>
    <summary>A summary.</summary>
    <published>2023-09-30T00:00:00Z</published>
    <updated>2023-09-30T00:00:00Z</updated>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v2</id>
    <title>Second Paper</title>
    <summary>Another summary.</summary>
    <published>2024-01-01T00:00:00Z</published>
    <updated>2024-01-02T00:00:00Z</updated>
  </entry>
</feed>`

func TestPDFURLFromArxivID(t *testing.T) {
	assert.Equal(t, "http://arxiv.org/pdf/2310.00266v1.pdf", PDFURLFromArxivID("http://arxiv.org/abs/2310.00266v1"))
	assert.Equal(t, "http://arxiv.org/pdf/2401.00001v2.pdf", PDFURLFromArxivID("  http://arxiv.org/abs/2401.00001v2\n"))
}

func TestHackerNewsClient_Candidates(t *testing.T) {
	var gotQuery, gotTags string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotTags = r.URL.Query().Get("tags")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(hnBody))
	}))
	defer srv.Close()

	client := NewHackerNewsClient(srv.URL, fetcher.New(fetcher.Config{}, nil), nil)
	candidates, err := client.Candidates(context.Background(), "rust async", 5)

	require.NoError(t, err)
	assert.Equal(t, "rust async", gotQuery)
	assert.Equal(t, "story", gotTags)

	// five hits considered, one without URL skipped
	require.Len(t, candidates, 4)
	assert.Equal(t, "https://one.example/post", candidates[0].URL)
	assert.Empty(t, candidates[0].Title)
	assert.Equal(t, FeedHackerNews, candidates[0].Feed)
	assert.Equal(t, "https://five.example", candidates[3].URL)
}

func TestHackerNewsClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewHackerNewsClient(srv.URL, fetcher.New(fetcher.Config{}, nil), nil)
	_, err := client.Candidates(context.Background(), "q", 5)

	assert.Error(t, err)
}

func TestArxivClient_Candidates(t *testing.T) {
	var gotSearch, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		gotSearch = r.URL.Query().Get("search_query")
		gotMax = r.URL.Query().Get("max_results")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivBody))
	}))
	defer srv.Close()

	client := NewArxivClient(srv.URL, fetcher.New(fetcher.Config{}, nil), nil)
	candidates, err := client.Candidates(context.Background(), "transformer models", 5)

	require.NoError(t, err)
	assert.Equal(t, "all:transformer models", gotSearch)
	assert.Equal(t, "10", gotMax)

	require.Len(t, candidates, 2)
	assert.Equal(t, "http://arxiv.org/pdf/2310.00266v1.pdf", candidates[0].URL)
	assert.Equal(t, "Attention Is All You Need Again", candidates[0].Title)
	assert.Equal(t, FeedArxiv, candidates[0].Feed)
}

func TestArxivClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewArxivClient(srv.URL, fetcher.New(fetcher.Config{}, nil), nil)
	_, err := client.Candidates(context.Background(), "q", 5)

	require.Error(t, err)
	assert.True(t, domain.IsExtractionKind(err, domain.ExtractionNetwork))
}

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) Candidates(ctx context.Context, query string, limit int) ([]domain.CandidateURL, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateURL), args.Error(1)
}

func urls(n int, prefix string) []domain.CandidateURL {
	out := make([]domain.CandidateURL, n)
	for i := range out {
		out[i] = domain.CandidateURL{URL: prefix + string(rune('a'+i))}
	}
	return out
}

func TestCollector_Collect_OrderAndCap(t *testing.T) {
	keyword := new(MockFeed)
	academic := new(MockFeed)
	keyword.On("Candidates", mock.Anything, "short", 5).Return(urls(7, "https://hn/"), nil)
	academic.On("Candidates", mock.Anything, "full query", 5).Return(urls(2, "https://arxiv/"), nil)

	c := NewCollector(keyword, academic, 0, nil)
	got := c.Collect(context.Background(), "short", "full query")

	require.Len(t, got, 7)
	assert.Equal(t, "https://hn/a", got[0].URL)
	assert.Equal(t, "https://hn/e", got[4].URL)
	assert.Equal(t, "https://arxiv/a", got[5].URL)
	keyword.AssertExpectations(t)
	academic.AssertExpectations(t)
}

func TestCollector_Collect_FeedFailureIsolated(t *testing.T) {
	keyword := new(MockFeed)
	academic := new(MockFeed)
	keyword.On("Candidates", mock.Anything, "short", 5).Return(nil, errors.New("hn down"))
	academic.On("Candidates", mock.Anything, "full", 5).Return(urls(3, "https://arxiv/"), nil)

	c := NewCollector(keyword, academic, 5, nil)
	got := c.Collect(context.Background(), "short", "full")

	require.Len(t, got, 3)
	assert.Equal(t, "https://arxiv/a", got[0].URL)
}

func TestCollector_Collect_KeepsDuplicates(t *testing.T) {
	dup := []domain.CandidateURL{{URL: "https://same.example"}}
	keyword := new(MockFeed)
	academic := new(MockFeed)
	keyword.On("Candidates", mock.Anything, "s", 5).Return(dup, nil)
	academic.On("Candidates", mock.Anything, "f", 5).Return(dup, nil)

	c := NewCollector(keyword, academic, 5, nil)
	got := c.Collect(context.Background(), "s", "f")

	assert.Len(t, got, 2)
}

func TestCollector_Collect_BothFail(t *testing.T) {
	keyword := new(MockFeed)
	academic := new(MockFeed)
	keyword.On("Candidates", mock.Anything, "s", 5).Return(nil, errors.New("down"))
	academic.On("Candidates", mock.Anything, "f", 5).Return(nil, errors.New("down"))

	c := NewCollector(keyword, academic, 5, nil)
	assert.Empty(t, c.Collect(context.Background(), "s", "f"))
}
