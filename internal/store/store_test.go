package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "gradfetch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func applicant(url, term, status string, intl *bool, gpa string) record.NormalizedRecord {
	r := record.NormalizedRecord{
		University:    record.String("MIT"),
		Program:       record.String("Computer Science"),
		Degree:        record.String("PhD"),
		DateAdded:     record.String("2026-01-15"),
		URL:           record.String(url),
		SemesterYear:  record.String(term),
		Status:        record.String(status),
		International: intl,
	}
	if gpa != "" {
		r.GPA = record.String(gpa)
	}
	return r
}

// --- DSN Tests ---

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect Dialect
		source  string
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/gradcafe", Postgres, "postgres://u:p@localhost:5432/gradcafe", false},
		{"postgresql://localhost/gradcafe", Postgres, "postgresql://localhost/gradcafe", false},
		{"sqlite:///tmp/x.db", SQLite, "/tmp/x.db", false},
		{"data/gradcafe.db", SQLite, "data/gradcafe.db", false},
		{"local.sqlite", SQLite, "local.sqlite", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost/x", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			dialect, source, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDSN)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

// --- Insert Tests ---

func TestOpen_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, SQLite, s.Dialect())
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertRecords_DuplicatesDoNotGrow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	recs := []record.NormalizedRecord{
		applicant("https://www.thegradcafe.com/result/1", "Fall 2026", "Accepted", record.Bool(false), "3.90"),
		applicant("https://www.thegradcafe.com/result/2", "Fall 2026", "Rejected", record.Bool(true), ""),
	}

	n, err := s.InsertRecords(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InsertRecords(ctx, recs)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertRecords_SkipsMissingURL(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	noURL := applicant("", "Fall 2026", "Accepted", nil, "")
	noURL.URL = nil
	linkOnly := applicant("", "Fall 2026", "Accepted", nil, "")
	linkOnly.URL = nil
	linkOnly.EntryLink = record.String("https://www.thegradcafe.com/result/9")

	n, err := s.InsertRecords(ctx, []record.NormalizedRecord{noURL, linkOnly})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertRecords_MultipleBatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	recs := make([]record.NormalizedRecord, BatchSize+5)
	for i := range recs {
		recs[i] = applicant(fmt.Sprintf("https://www.thegradcafe.com/result/%d", i), "Fall 2025", "Accepted", nil, "")
	}
	// A duplicate inside the same run is ignored too.
	recs = append(recs, recs[0])

	n, err := s.InsertRecords(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, BatchSize+5, n)
}

func TestInsertRecords_Empty(t *testing.T) {
	n, err := openTestStore(t).InsertRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- Analysis Tests ---

func TestAnalysis(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.InsertRecords(ctx, []record.NormalizedRecord{
		applicant("u1", "Fall 2026", "Accepted", record.Bool(false), "3.50"),
		applicant("u2", "Fall 2026", "Rejected", record.Bool(false), "3.00"),
		applicant("u3", "Fall 2026", "Accepted", record.Bool(true), "4.00"),
		applicant("u4", "Fall 2025", "Accepted on 3 Feb", nil, ""),
		applicant("u5", "Fall 2025", "Waitlisted", record.Bool(true), ""),
	})
	require.NoError(t, err)

	a, err := s.Analysis(ctx, AnalysisOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultTerm, a.Term)
	assert.Equal(t, 5, a.Total)
	assert.Equal(t, 3, a.TermCount)
	assert.Equal(t, 2, a.International)
	assert.Equal(t, 2, a.American)
	assert.Equal(t, 1, a.Other)
	assert.InDelta(t, 40.0, a.InternationalPct, 0.001)

	require.NotNil(t, a.AvgGPA)
	assert.InDelta(t, 3.5, *a.AvgGPA, 0.001)
	assert.Nil(t, a.AvgGREQ)

	require.NotNil(t, a.AmericanTermGPA)
	assert.InDelta(t, 3.25, *a.AmericanTermGPA, 0.001)
	require.NotNil(t, a.AcceptedTermGPA)
	assert.InDelta(t, 3.75, *a.AcceptedTermGPA, 0.001)

	assert.Equal(t, 2, a.AcceptanceTotal)
	assert.Equal(t, 1, a.Accepted)
	assert.InDelta(t, 50.0, a.AcceptancePct, 0.001)
}

func TestAnalysis_EmptyTable(t *testing.T) {
	a, err := openTestStore(t).Analysis(context.Background(), AnalysisOptions{Term: "Spring 2027"})
	require.NoError(t, err)
	assert.Equal(t, "Spring 2027", a.Term)
	assert.Zero(t, a.InternationalPct)
	assert.Nil(t, a.AvgGPA)
}

func TestNationalityLabel(t *testing.T) {
	assert.Equal(t, Other, NationalityLabel(nil))
	assert.Equal(t, International, NationalityLabel(record.Bool(true)))
	assert.Equal(t, American, NationalityLabel(record.Bool(false)))
}
