// Package pipeline drives a scrape: it walks listing pages in order, applies
// the retry and politeness budgets, and hands every page to the extractor.
// A separate Normalize pass cleans the collected records in parallel.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

// ErrInvalidConfig is the only error Run returns. Check with errors.Is.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config controls a scrape run. Every knob is explicit so tests can inject
// fast, deterministic values.
type Config struct {
	Filter    record.ResultFilter `validate:"required,oneof=all accepted rejected waitlisted"`
	StartPage int                 `validate:"gte=1"`
	PageCount int                 `validate:"gt=0"`

	// BaseDelay is the politeness pause after a successful fetch. A random
	// jitter of up to half of it is added.
	BaseDelay time.Duration `validate:"gte=0"`

	// MaxConsecutiveErrors failed fetches in a row end the run.
	MaxConsecutiveErrors int `validate:"gt=0"`
	// MaxPageRetries bounds retries of a single page before it is skipped.
	MaxPageRetries int `validate:"gte=0"`
	// RateLimitBackoff is multiplied by the attempt number after a
	// rate-limited response.
	RateLimitBackoff time.Duration `validate:"gte=0"`
	// TransientWait is the fixed pause before retrying a transient failure.
	TransientWait time.Duration `validate:"gte=0"`

	// Workers bounds the Normalize pass (0 = GOMAXPROCS).
	Workers int `validate:"gte=0"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Filter:               record.FilterAll,
		StartPage:            1,
		PageCount:            10,
		BaseDelay:            500 * time.Millisecond,
		MaxConsecutiveErrors: 5,
		MaxPageRetries:       3,
		RateLimitBackoff:     10 * time.Second,
		TransientWait:        5 * time.Second,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

var validate = validator.New()

// Validate checks the config, wrapping failures in ErrInvalidConfig.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%w: %s failed '%s' (got %v)", ErrInvalidConfig, e.Field(), e.Tag(), e.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
