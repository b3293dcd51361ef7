package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/extractor"
	"github.com/jmylchreest/gradfetch/pkg/fetcher"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

// Extractor parses one fetched page.
type Extractor interface {
	Extract(html string) extractor.Extraction
}

// StopReason says why a run ended.
type StopReason string

const (
	StopCompleted StopReason = "completed"   // every requested page was visited
	StopEndOfData StopReason = "end_of_data" // the site reported no such page
	StopEmptyPage StopReason = "empty_page"  // a page yielded no records
	StopFatal     StopReason = "fatal"       // error budget exhausted or unrecoverable fetch
	StopCancelled StopReason = "cancelled"
)

// RunReport summarizes a run.
type RunReport struct {
	PagesFetched int
	PagesSkipped int
	Records      int
	RowsSkipped  int
	Retries      int
	LastPage     int // last page whose records were kept
	Stop         StopReason
}

// Pipeline ties a Fetcher to an Extractor.
type Pipeline struct {
	fetcher   fetcher.Fetcher
	extractor Extractor
}

// New creates a Pipeline.
func New(f fetcher.Fetcher, x Extractor) *Pipeline {
	return &Pipeline{fetcher: f, extractor: x}
}

type pageResult int

const (
	pageFetched pageResult = iota
	pageSkipped
	pageStopped
)

// runState is the mutable state of one run.
type runState struct {
	cfg               Config
	consecutiveErrors int
	pauseBeforeNext   bool
	report            RunReport
}

// Run fetches and extracts pages StartPage..StartPage+PageCount-1 in order.
// It stops early on an empty page, end of data, an exhausted error budget
// or cancellation, and returns whatever was collected. The error is non-nil
// only for an invalid config.
func (p *Pipeline) Run(ctx context.Context, cfg Config) ([]record.RawRecord, RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, RunReport{}, err
	}

	st := &runState{cfg: cfg}
	st.report.Stop = StopCompleted
	var records []record.RawRecord

	logger.Info("scrape starting",
		"filter", cfg.Filter,
		"start_page", cfg.StartPage,
		"page_count", cfg.PageCount,
		"fetcher", p.fetcher.Type())

	last := cfg.StartPage + cfg.PageCount - 1
	for page := cfg.StartPage; page <= last; page++ {
		if ctx.Err() != nil {
			st.report.Stop = StopCancelled
			break
		}

		if st.pauseBeforeNext {
			if err := sleep(ctx, politeDelay(cfg.BaseDelay)); err != nil {
				st.report.Stop = StopCancelled
				break
			}
		}

		pg, res, reason := p.fetchPage(ctx, st, page)
		if res == pageStopped {
			st.report.Stop = reason
			break
		}
		if res == pageSkipped {
			st.report.PagesSkipped++
			continue
		}

		st.report.PagesFetched++
		ext := p.extractor.Extract(pg.HTML)
		st.report.RowsSkipped += len(ext.Skipped)
		for _, m := range ext.Skipped {
			logger.Debug("row skipped", "page", page, "row", m.Index, "kind", m.Kind, "error", m.Cause)
		}

		if len(ext.Records) == 0 {
			logger.Info("page has no records, stopping", "page", page)
			st.report.Stop = StopEmptyPage
			break
		}

		records = append(records, ext.Records...)
		st.report.LastPage = page
		logger.Info("page scraped", "page", page, "records", len(ext.Records), "total", len(records))
	}

	st.report.Records = len(records)
	logger.Info("scrape finished",
		"stop", st.report.Stop,
		"records", st.report.Records,
		"pages_fetched", st.report.PagesFetched,
		"pages_skipped", st.report.PagesSkipped)

	return records, st.report, nil
}

// fetchPage fetches one page, retrying within the page and run budgets.
func (p *Pipeline) fetchPage(ctx context.Context, st *runState, page int) (fetcher.Page, pageResult, StopReason) {
	cfg := st.cfg
	var rateLimited, transient int

	for {
		pg, err := p.fetcher.Fetch(ctx, fetcher.PageRequest{Page: page, Filter: cfg.Filter})
		if ctx.Err() != nil {
			return pg, pageStopped, StopCancelled
		}

		outcome := fetcher.OutcomeOf(err)
		st.pauseBeforeNext = outcome == fetcher.Success

		switch outcome {
		case fetcher.Success:
			st.consecutiveErrors = 0
			return pg, pageFetched, ""

		case fetcher.EndOfData:
			logger.Info("end of data", "page", page)
			return pg, pageStopped, StopEndOfData

		case fetcher.FatalError:
			logger.Error("fatal fetch error", "page", page, "error", err)
			return pg, pageStopped, StopFatal

		case fetcher.RateLimited:
			rateLimited++
			if rateLimited > cfg.MaxPageRetries {
				logger.Warn("rate limit retries exhausted, skipping page", "page", page)
				if st.failure() {
					return pg, pageStopped, StopFatal
				}
				return pg, pageSkipped, ""
			}
			wait := cfg.RateLimitBackoff * time.Duration(rateLimited)
			logger.Warn("rate limited, backing off", "page", page, "attempt", rateLimited, "wait", wait)
			st.report.Retries++
			if err := sleep(ctx, wait); err != nil {
				return pg, pageStopped, StopCancelled
			}

		default:
			transient++
			logger.Warn("transient fetch error",
				"page", page,
				"attempt", transient,
				"consecutive_errors", st.consecutiveErrors+1,
				"error", err)
			if st.failure() {
				return pg, pageStopped, StopFatal
			}
			if transient > cfg.MaxPageRetries {
				logger.Warn("retries exhausted, skipping page", "page", page)
				return pg, pageSkipped, ""
			}
			st.report.Retries++
			if err := sleep(ctx, cfg.TransientWait); err != nil {
				return pg, pageStopped, StopCancelled
			}
		}
	}
}

// failure counts a failed fetch and reports whether the run budget is gone.
func (st *runState) failure() bool {
	st.consecutiveErrors++
	if st.consecutiveErrors >= st.cfg.MaxConsecutiveErrors {
		logger.Error("too many consecutive errors, stopping", "consecutive_errors", st.consecutiveErrors)
		return true
	}
	return false
}

// politeDelay adds up to 50% random jitter to base.
func politeDelay(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return base + time.Duration(rand.Int64N(int64(base)/2+1))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
