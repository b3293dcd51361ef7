// Package fetcher retrieves paginated survey listing pages and classifies
// every attempt into a fetch outcome.
// Implement the Fetcher interface to plug in other transports.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

// Fetcher retrieves one listing page per call.
type Fetcher interface {
	// Fetch retrieves the page described by req. A nil error means Success;
	// otherwise OutcomeOf(err) tells the caller what happened.
	Fetch(ctx context.Context, req PageRequest) (Page, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// PageRequest identifies a listing page.
type PageRequest struct {
	Page   int
	Filter record.ResultFilter
}

// Page is a successfully fetched listing page.
type Page struct {
	Number     int
	URL        string
	HTML       string
	StatusCode int
	FetchedAt  time.Time
}

// Outcome classifies a fetch attempt.
type Outcome int

const (
	Success Outcome = iota
	EndOfData
	RateLimited
	TransientError
	FatalError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case EndOfData:
		return "end_of_data"
	case RateLimited:
		return "rate_limited"
	case TransientError:
		return "transient_error"
	case FatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}

// Error types for distinguishing fetch outcomes.
// Check with errors.Is(err, fetcher.ErrEndOfData) or use OutcomeOf.
var (
	// ErrEndOfData indicates the site has no page at this number (HTTP 404).
	ErrEndOfData = errors.New("end of data")
	// ErrRateLimited indicates the site asked us to slow down (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient covers timeouts, connection failures and other HTTP errors.
	ErrTransient = errors.New("transient fetch error")
	// ErrFatal indicates the request can never succeed as configured.
	ErrFatal = errors.New("fatal fetch error")
)

// OutcomeOf maps a Fetch error to its Outcome. Unclassified errors are
// treated as transient.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrEndOfData):
		return EndOfData
	case errors.Is(err, ErrRateLimited):
		return RateLimited
	case errors.Is(err, ErrFatal):
		return FatalError
	default:
		return TransientError
	}
}

// classifyStatus turns a failed response into an outcome error.
func classifyStatus(status int, cause error) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrEndOfData, status)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	}
	if cause == nil {
		cause = errors.New(http.StatusText(status))
	}
	if status == 0 {
		return fmt.Errorf("%w: %w", ErrTransient, cause)
	}
	return fmt.Errorf("%w: status %d: %w", ErrTransient, status, cause)
}

// Config holds configuration shared by all fetchers.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // hard ceiling on request rate (0 = unlimited)
	MaxBodySize       int     // bytes (0 = transport default)
}

// DefaultConfig returns sensible defaults for the GradCafe survey.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://www.thegradcafe.com/survey/index.php",
		UserAgent:         defaultUserAgent,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 2,
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// PageURL builds the listing URL for req, newest results first.
func (c Config) PageURL(req PageRequest) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("base URL must be absolute: %q", c.BaseURL)
	}
	if req.Page < 1 {
		return "", fmt.Errorf("page must be >= 1, got %d", req.Page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("sort", "newest")
	if v := req.Filter.SiteValue(); v != "" {
		q.Set("decision", v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}
