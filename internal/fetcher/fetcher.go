// Package fetcher retrieves raw documents over HTTP and reports failures as
// typed extraction errors.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	// BotDetectionMarker is served by sites that refuse automated clients.
	BotDetectionMarker = "You can’t perform that action"

	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 50 << 20
	DefaultUserAgent    = "gleaner/1.0"
)

// ErrBodyTooLarge is wrapped when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Config holds Fetcher configuration
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Response is a successfully retrieved document
type Response struct {
	URL         string
	Body        []byte
	ContentType string
}

// Fetcher performs GET requests with explicit failure signaling
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// New creates a Fetcher with its own http.Client
func New(cfg Config, logger *zap.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithClient(&http.Client{Timeout: timeout}, cfg, logger)
}

// NewWithClient creates a Fetcher around an existing http.Client
func NewWithClient(client *http.Client, cfg Config, logger *zap.Logger) *Fetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Fetcher{
		client:       client,
		userAgent:    userAgent,
		maxBodyBytes: maxBody,
		logger:       logging.OrNop(logger),
	}
}

// Fetch retrieves url as text. A body containing the bot-detection marker is
// reported as ExtractionBotDetected.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}

	body, err := decodeHTML(resp.Body, resp.ContentType)
	if err != nil {
		return "", domain.NewExtractionError(domain.ExtractionParse, url, err)
	}
	if strings.Contains(body, BotDetectionMarker) {
		f.logger.Warn("bot detection page served", zap.String("url", url))
		return "", domain.NewExtractionError(domain.ExtractionBotDetected, url, nil)
	}
	return body, nil
}

// FetchBytes retrieves url as raw bytes. Any status other than 200 is a
// network failure carrying the status code.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewExtractionError(domain.ExtractionNetwork, url, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewExtractionError(domain.ExtractionNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.ExtractionError{
			Kind:       domain.ExtractionNetwork,
			URL:        url,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, domain.NewExtractionError(domain.ExtractionNetwork, url, fmt.Errorf("failed to read body: %w", err))
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, domain.NewExtractionError(domain.ExtractionNetwork, url,
			fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, f.maxBodyBytes))
	}

	f.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		URL:         url,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// decodeHTML converts body to UTF-8. Bodies that already are valid UTF-8 pass
// through; anything else is decoded by the Content-Type charset or a <meta>
// declaration, falling back to windows-1252.
func decodeHTML(body []byte, contentType string) (string, error) {
	if utf8.Valid(body) {
		return string(body), nil
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode charset: %w", err)
	}
	return string(decoded), nil
}
