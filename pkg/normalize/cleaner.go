package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

// ErrInvalidRecord is returned when a cleaned record breaks a record
// invariant. Check with errors.Is.
var ErrInvalidRecord = errors.New("invalid normalized record")

// MalformedField records a raw value that could not be normalized.
// The field is set to null and the record is kept.
type MalformedField struct {
	Field string
	Value string
}

func (m MalformedField) Error() string {
	return fmt.Sprintf("malformed %s: %q", m.Field, m.Value)
}

// RecordError reports a record dropped by a normalize pass.
type RecordError struct {
	Index int
	Cause error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Cause)
}

func (e RecordError) Unwrap() error {
	return e.Cause
}

// Cleaner turns RawRecords into NormalizedRecords. It holds no mutable
// state and is safe for concurrent use.
type Cleaner struct {
	validate *validator.Validate
}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{validate: newValidator()}
}

// Clean normalizes every field of raw. Fields that fail to normalize are
// nulled and reported as MalformedFields. An error means the record as a
// whole is unusable.
func (c *Cleaner) Clean(raw record.RawRecord) (record.NormalizedRecord, []MalformedField, error) {
	var bad []MalformedField
	field := func(name string, in *string, fn func(string) (string, bool)) *string {
		if in == nil {
			return nil
		}
		out, ok := fn(*in)
		if !ok {
			if strings.TrimSpace(*in) != "" {
				bad = append(bad, MalformedField{Field: name, Value: *in})
			}
			return nil
		}
		return &out
	}

	n := record.NormalizedRecord{
		Degree:          field("degree", raw.Degree, Degree),
		DateAdded:       field("date", raw.Date, Date),
		Status:          field("status", raw.Status, Status),
		GPA:             field("gpa", raw.GPA, GPA),
		GREVerbal:       field("gre_verbal", raw.GREVerbal, GRE),
		GREQuantitative: field("gre_quantitative", raw.GREQuantitative, GRE),
		GREAW:           field("gre_aw", raw.GREAW, GRE),
		GRESubject:      field("gre_subject", raw.GRESubject, GRE),
		Comments:        nullIfEmpty(raw.Comments, StripHTML),
		URL:             raw.URL,
		EntryLink:       raw.EntryLink,
		SemesterYear:    raw.SemesterYear,
		International:   raw.International,
		OriginalProgram: raw.Program,
		OriginalStatus:  raw.Status,
		AcceptanceDate:  raw.AcceptanceDate,
		RejectionDate:   raw.RejectionDate,
	}
	n.Program, n.University = programAndUniversity(raw.Program, raw.University)

	if err := c.Validate(n); err != nil {
		return record.NormalizedRecord{}, bad, err
	}
	return n, bad, nil
}

// Validate checks n against the record invariants: canonical degree, ISO
// date, two-decimal GPA and GRE scores on the 0-800 scale.
func (c *Cleaner) Validate(n record.NormalizedRecord) error {
	if err := c.validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, validationErrors(err))
	}
	return nil
}

// programAndUniversity only splits the program text when the listing did
// not carry a separate university.
func programAndUniversity(program, university *string) (*string, *string) {
	uni := strings.TrimSpace(record.Value(university))
	if uni != "" {
		return trimmed(program), &uni
	}
	p, u := SplitProgramUniversity(record.Value(program))
	return optional(p), optional(u)
}

func nullIfEmpty(in *string, fn func(string) (string, bool)) *string {
	if in == nil {
		return nil
	}
	out, ok := fn(*in)
	if !ok {
		return nil
	}
	return &out
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	return optional(strings.TrimSpace(*p))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
