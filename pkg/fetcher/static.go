package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/gradfetch/internal/logger"
)

// StaticFetcher uses Colly for static HTML fetching.
// It implements the Fetcher interface.
type StaticFetcher struct {
	config  Config
	limiter *rate.Limiter
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg Config) *StaticFetcher {
	cfg = cfg.withDefaults()
	return &StaticFetcher{
		config:  cfg,
		limiter: newLimiter(cfg.RequestsPerSecond),
	}
}

// Fetch retrieves one listing page using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, req PageRequest) (Page, error) {
	target, err := f.config.PageURL(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	result := Page{Number: req.Page, URL: target}

	if err := f.limiter.Wait(ctx); err != nil {
		return result, err
	}

	// A fresh collector per request keeps retries of the same URL possible.
	opts := []colly.CollectorOption{
		colly.UserAgent(f.config.UserAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	}
	if f.config.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(f.config.MaxBodySize))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(f.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
	})

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.HTML = string(r.Body)
		logger.Debug("static fetch response received",
			"page", req.Page,
			"status", r.StatusCode,
			"body_size", len(r.Body))
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		result.StatusCode = status
		fetchErr = classifyStatus(status, err)
		logger.Debug("static fetch error", "page", req.Page, "status", status, "error", err)
	})

	logger.Debug("static fetch visiting URL", "url", target)
	visitErr := c.Visit(target)
	result.FetchedAt = time.Now()

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if fetchErr != nil {
		return result, fetchErr
	}
	if visitErr != nil {
		return result, classifyStatus(result.StatusCode, visitErr)
	}
	return result, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
