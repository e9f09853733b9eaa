package extract

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
)

const (
	DefaultRenderWait    = 2 * time.Second
	DefaultRenderTimeout = 45 * time.Second
)

// Renderer returns the HTML of a page after its scripts have run
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeConfig holds headless browser settings
type ChromeConfig struct {
	ExecPath  string
	UserAgent string
	Wait      time.Duration
	Timeout   time.Duration
}

// ChromeRenderer renders pages in a headless Chrome process started per call
type ChromeRenderer struct {
	cfg    ChromeConfig
	logger *zap.Logger
}

func NewChromeRenderer(cfg ChromeConfig, logger *zap.Logger) *ChromeRenderer {
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultRenderWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRenderTimeout
	}
	return &ChromeRenderer{cfg: cfg, logger: logging.OrNop(logger)}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	return opts
}

// Render navigates to url, waits for client-side rendering and returns the
// document's outer HTML. An error status on the main document is a render
// failure.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancel()

	var status atomic.Int64
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	start := time.Now()
	var outer string
	err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.Sleep(r.cfg.Wait),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		return "", domain.NewExtractionError(domain.ExtractionRender, url, err)
	}

	if code := status.Load(); code >= 400 {
		return "", &domain.ExtractionError{
			Kind:       domain.ExtractionRender,
			URL:        url,
			StatusCode: int(code),
			Err:        fmt.Errorf("document returned status %d", code),
		}
	}

	r.logger.Debug("rendered",
		zap.String("url", url),
		zap.Int("bytes", len(outer)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outer, nil
}
