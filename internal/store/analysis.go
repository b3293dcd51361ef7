package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// Default terms used by Analysis.
const (
	DefaultTerm           = "Fall 2026"
	DefaultAcceptanceTerm = "Fall 2025"
)

// AnalysisOptions selects the terms the summary queries filter on.
type AnalysisOptions struct {
	Term           string
	AcceptanceTerm string
}

// Analysis is the summary of the stored applicants.
type Analysis struct {
	Term           string `json:"term"`
	AcceptanceTerm string `json:"acceptance_term"`

	Total     int `json:"total"`
	TermCount int `json:"term_count"`

	International    int     `json:"international"`
	American         int     `json:"american"`
	Other            int     `json:"other"`
	InternationalPct float64 `json:"international_pct"`

	// Averages are nil when no row reports the score.
	AvgGPA   *float64 `json:"avg_gpa"`
	AvgGREQ  *float64 `json:"avg_gre_q"`
	AvgGREV  *float64 `json:"avg_gre_v"`
	AvgGREAW *float64 `json:"avg_gre_aw"`

	AmericanTermGPA *float64 `json:"american_term_gpa"`
	AcceptedTermGPA *float64 `json:"accepted_term_gpa"`

	AcceptanceTotal int     `json:"acceptance_total"`
	Accepted        int     `json:"accepted"`
	AcceptancePct   float64 `json:"acceptance_pct"`
}

// acceptedClause matches any status containing "accept", case-insensitively,
// in both dialects.
const acceptedClause = "LOWER(status) LIKE '%accept%'"

// Analysis runs the summary queries.
func (s *Store) Analysis(ctx context.Context, opts AnalysisOptions) (Analysis, error) {
	if opts.Term == "" {
		opts.Term = DefaultTerm
	}
	if opts.AcceptanceTerm == "" {
		opts.AcceptanceTerm = DefaultAcceptanceTerm
	}
	a := Analysis{Term: opts.Term, AcceptanceTerm: opts.AcceptanceTerm}

	counts := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&a.Total, "SELECT COUNT(*) FROM applicants", nil},
		{&a.TermCount, "SELECT COUNT(*) FROM applicants WHERE term = ?", []any{opts.Term}},
		{&a.International, "SELECT COUNT(*) FROM applicants WHERE us_or_international = ?", []any{International}},
		{&a.American, "SELECT COUNT(*) FROM applicants WHERE us_or_international = ?", []any{American}},
		{&a.Other, "SELECT COUNT(*) FROM applicants WHERE us_or_international = ?", []any{Other}},
		{&a.AcceptanceTotal, "SELECT COUNT(*) FROM applicants WHERE term = ?", []any{opts.AcceptanceTerm}},
		{&a.Accepted, "SELECT COUNT(*) FROM applicants WHERE term = ? AND " + acceptedClause, []any{opts.AcceptanceTerm}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, s.rebind(c.query), c.args...).Scan(c.dst); err != nil {
			return Analysis{}, fmt.Errorf("analysis count query failed: %w", err)
		}
	}

	averages := []struct {
		dst   **float64
		query string
		args  []any
	}{
		{&a.AvgGPA, "SELECT AVG(gpa) FROM applicants WHERE gpa IS NOT NULL", nil},
		{&a.AvgGREQ, "SELECT AVG(gre_q) FROM applicants WHERE gre_q IS NOT NULL", nil},
		{&a.AvgGREV, "SELECT AVG(gre_v) FROM applicants WHERE gre_v IS NOT NULL", nil},
		{&a.AvgGREAW, "SELECT AVG(gre_aw) FROM applicants WHERE gre_aw IS NOT NULL", nil},
		{
			&a.AmericanTermGPA,
			"SELECT AVG(gpa) FROM applicants WHERE us_or_international = ? AND term = ? AND gpa IS NOT NULL",
			[]any{American, opts.Term},
		},
		{
			&a.AcceptedTermGPA,
			"SELECT AVG(gpa) FROM applicants WHERE term = ? AND " + acceptedClause + " AND gpa IS NOT NULL",
			[]any{opts.Term},
		},
	}
	for _, q := range averages {
		var v sql.NullFloat64
		if err := s.db.QueryRowContext(ctx, s.rebind(q.query), q.args...).Scan(&v); err != nil {
			return Analysis{}, fmt.Errorf("analysis average query failed: %w", err)
		}
		if v.Valid {
			f := v.Float64
			*q.dst = &f
		}
	}

	a.InternationalPct = percent(a.International, a.Total)
	a.AcceptancePct = percent(a.Accepted, a.AcceptanceTotal)
	return a, nil
}

// percent returns part/total as a percentage rounded to two places.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
