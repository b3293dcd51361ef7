// Package standardize maps free-text program and university names onto
// canonical spellings, either by fuzzy matching against canonical lists or
// by asking an LLM.
package standardize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

// ErrNoStandardizer is returned by an empty Chain.
var ErrNoStandardizer = errors.New("no standardizer available")

// Names is a standardized program and university pair.
type Names struct {
	Program    string `json:"program"`
	University string `json:"university"`
}

// Standardizer maps one program and university pair to canonical names.
type Standardizer interface {
	Standardize(ctx context.Context, program, university string) (Names, error)
	Name() string
}

// Chain tries each standardizer in order until one succeeds.
type Chain struct {
	standardizers []Standardizer
}

// NewChain creates a chain from the given standardizers.
func NewChain(standardizers ...Standardizer) *Chain {
	return &Chain{standardizers: standardizers}
}

// Standardize returns the first successful result.
func (c *Chain) Standardize(ctx context.Context, program, university string) (Names, error) {
	if len(c.standardizers) == 0 {
		return Names{}, ErrNoStandardizer
	}

	var lastErr error
	var tried []string
	for _, s := range c.standardizers {
		tried = append(tried, s.Name())
		names, err := s.Standardize(ctx, program, university)
		if err == nil {
			return names, nil
		}
		if ctx.Err() != nil {
			return Names{}, ctx.Err()
		}
		lastErr = err
	}

	return Names{}, fmt.Errorf("all standardizers failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

// Name returns the chain name.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.standardizers))
	for _, s := range c.standardizers {
		names = append(names, s.Name())
	}
	return "chain(" + strings.Join(names, "->") + ")"
}

// Apply fills llm_generated_program and llm_generated_university on recs in
// place. A field that is already set is never overwritten. Identical input
// pairs are standardized once. It returns the number of records changed; a
// record whose standardization fails is left as it was.
func Apply(ctx context.Context, s Standardizer, recs []record.NormalizedRecord) (int, error) {
	log := logger.Component("standardize")

	type key struct{ program, university string }
	cache := make(map[key]Names)

	updated, failed := 0, 0
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if i > 0 && i%100 == 0 {
			log.Info("standardize progress", "done", i, "total", len(recs))
		}

		r := &recs[i]
		if r.LLMGeneratedProgram != nil && r.LLMGeneratedUniversity != nil {
			continue
		}

		k := key{record.Value(r.Program), record.Value(r.University)}
		if k.program == "" && k.university == "" {
			continue
		}

		names, ok := cache[k]
		if !ok {
			var err error
			names, err = s.Standardize(ctx, k.program, k.university)
			if err != nil {
				if ctx.Err() != nil {
					return updated, ctx.Err()
				}
				failed++
				log.Debug("standardize failed", "index", i, "standardizer", s.Name(), "error", err)
				continue
			}
			cache[k] = names
		}

		if r.LLMGeneratedProgram == nil {
			r.LLMGeneratedProgram = record.String(names.Program)
		}
		if r.LLMGeneratedUniversity == nil {
			r.LLMGeneratedUniversity = record.String(names.University)
		}
		updated++
	}

	log.Info("standardize finished",
		"standardizer", s.Name(),
		"updated", updated,
		"failed", failed,
		"distinct", len(cache),
	)
	return updated, nil
}
