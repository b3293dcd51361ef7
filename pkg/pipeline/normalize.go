package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/normalize"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

// Cleaner normalizes a single record.
type Cleaner interface {
	Clean(raw record.RawRecord) (record.NormalizedRecord, []normalize.MalformedField, error)
}

// NormalizeReport summarizes a Normalize pass.
type NormalizeReport struct {
	Cleaned         int
	Skipped         int
	MalformedFields int
	Errors          []normalize.RecordError
	Cancelled       bool
}

const progressEvery = 1000

type cleaned struct {
	rec record.NormalizedRecord
	bad int
	err error
	ok  bool
}

// Normalize cleans raws on up to workers goroutines. Records are independent,
// so a record that fails is skipped without affecting the others. The output
// keeps input order.
func Normalize(ctx context.Context, c Cleaner, raws []record.RawRecord, workers int) ([]record.NormalizedRecord, NormalizeReport) {
	if workers <= 0 {
		workers = DefaultConfig().Workers
	}

	results := make([]cleaned, len(raws))
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)

	var report NormalizeReport
	for i := range raws {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		g.Go(func() error {
			results[i] = cleanOne(c, raws[i])
			if n := done.Add(1); n%progressEvery == 0 {
				logger.Info("normalize progress", "done", n, "total", len(raws))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]record.NormalizedRecord, 0, len(raws))
	for i, r := range results {
		switch {
		case r.err != nil:
			report.Skipped++
			report.Errors = append(report.Errors, normalize.RecordError{Index: i, Cause: r.err})
			logger.Debug("record skipped", "index", i, "error", r.err)
		case r.ok:
			report.Cleaned++
			report.MalformedFields += r.bad
			out = append(out, r.rec)
		}
	}

	logger.Info("normalize finished",
		"cleaned", report.Cleaned,
		"skipped", report.Skipped,
		"malformed_fields", report.MalformedFields)

	return out, report
}

func cleanOne(c Cleaner, raw record.RawRecord) (res cleaned) {
	defer func() {
		if r := recover(); r != nil {
			res = cleaned{err: fmt.Errorf("panic while cleaning: %v", r)}
		}
	}()
	rec, bad, err := c.Clean(raw)
	if err != nil {
		return cleaned{err: err}
	}
	return cleaned{rec: rec, bad: len(bad), ok: true}
}
