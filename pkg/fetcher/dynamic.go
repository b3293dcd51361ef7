package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/gradfetch/internal/logger"
)

// DynamicFetcher uses chromedp for listings that only render in a browser.
type DynamicFetcher struct {
	config    Config
	limiter   *rate.Limiter
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// browserFlags are the Chrome switches added to chromedp's defaults. The
// browser announces itself as automated.
var browserFlags = map[string]any{
	"headless":              true,
	"disable-gpu":           true,
	"no-sandbox":            true,
	"disable-dev-shm-usage": true,
}

// NewDynamicFetcher creates a new dynamic fetcher with a headless browser
// allocator. The browser itself starts lazily on the first Fetch.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	cfg = cfg.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range browserFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created", "timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:    cfg,
		limiter:   newLimiter(cfg.RequestsPerSecond),
		allocCtx:  allocCtx,
		cancelCtx: cancel,
	}, nil
}

// Fetch retrieves one listing page using a headless browser.
func (f *DynamicFetcher) Fetch(ctx context.Context, req PageRequest) (Page, error) {
	target, err := f.config.PageURL(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	result := Page{Number: req.Page, URL: target}

	if err := f.limiter.Wait(ctx); err != nil {
		return result, err
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, f.config.Timeout)
	defer cancelTimeout()

	// Stop the browser work when the caller cancels.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var status atomic.Int64
	chromedp.ListenTarget(timeoutCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.Store(e.Response.Status)
		}
	})

	var html string
	err = chromedp.Run(timeoutCtx,
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	result.FetchedAt = time.Now()
	result.StatusCode = int(status.Load())

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if err != nil {
		logger.Debug("dynamic fetch failed", "page", req.Page, "status", result.StatusCode, "error", err)
		return result, classifyStatus(result.StatusCode, err)
	}
	if result.StatusCode >= http.StatusBadRequest {
		return result, classifyStatus(result.StatusCode, nil)
	}

	result.HTML = html
	logger.Debug("dynamic fetch complete", "page", req.Page, "status", result.StatusCode, "html_size", len(html))
	return result, nil
}

// Close shuts down the browser allocator.
func (f *DynamicFetcher) Close() error {
	f.cancelCtx()
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
