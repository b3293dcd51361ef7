package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/gradfetch/pkg/normalize"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

type flakyCleaner struct {
	inner *normalize.Cleaner
}

func (c flakyCleaner) Clean(raw record.RawRecord) (record.NormalizedRecord, []normalize.MalformedField, error) {
	switch record.Value(raw.Program) {
	case "explode":
		panic("cleaner bug")
	case "reject":
		return record.NormalizedRecord{}, nil, errors.New("rejected")
	}
	return c.inner.Clean(raw)
}

func TestNormalize_KeepsOrderAndCounts(t *testing.T) {
	raws := make([]record.RawRecord, 0, 50)
	for i := range 50 {
		raws = append(raws, record.RawRecord{
			Program: record.String(fmt.Sprintf("Program %02d", i)),
			GPA:     record.String("3.5"),
		})
	}

	out, report := Normalize(context.Background(), normalize.NewCleaner(), raws, 8)

	require.Len(t, out, 50)
	assert.Equal(t, 50, report.Cleaned)
	assert.Zero(t, report.Skipped)
	for i, rec := range out {
		assert.Equal(t, fmt.Sprintf("Program %02d", i), record.Value(rec.Program))
		assert.Equal(t, "3.50", record.Value(rec.GPA))
	}
}

func TestNormalize_SkipsFailingRecords(t *testing.T) {
	raws := []record.RawRecord{
		{Program: record.String("Physics")},
		{Program: record.String("explode")},
		{Program: record.String("reject")},
		{Program: record.String("Biology"), GPA: record.String("9.9")},
	}

	out, report := Normalize(context.Background(), flakyCleaner{normalize.NewCleaner()}, raws, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "Physics", record.Value(out[0].Program))
	assert.Equal(t, "Biology", record.Value(out[1].Program))
	assert.Nil(t, out[1].GPA)

	assert.Equal(t, 2, report.Cleaned)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.MalformedFields)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 1, report.Errors[0].Index)
	assert.Equal(t, 2, report.Errors[1].Index)
}

func TestNormalize_Empty(t *testing.T) {
	out, report := Normalize(context.Background(), normalize.NewCleaner(), nil, 0)
	assert.Empty(t, out)
	assert.Zero(t, report.Cleaned)
}

func TestNormalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raws := []record.RawRecord{{Program: record.String("Physics")}}
	out, report := Normalize(ctx, normalize.NewCleaner(), raws, 1)
	assert.Empty(t, out)
	assert.True(t, report.Cancelled)
}
