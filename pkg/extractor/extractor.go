// Package extractor turns a survey listing page into RawRecords.
//
// Each table row is classified once into a RowKind and handled by kind.
// A primary row starts a record and the borderless continuation rows that
// follow it add tags and comments to the same record. Any failure inside a
// row is reported as a MalformedRow and never aborts the page.
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

// RowKind is the shape of a listing table row.
type RowKind int

const (
	Unrecognized RowKind = iota
	Primary
	Continuation
)

func (k RowKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Continuation:
		return "continuation"
	default:
		return "unrecognized"
	}
}

// Markup names the CSS classes and fragments that identify listing parts.
type Markup struct {
	BorderlessClass string // marks continuation rows
	UniversityClass string // university name inside the first cell
	DegreeClass     string // degree badge span inside the program cell
	TagClass        string // status badge and continuation tags
	CommentClass    string // free-text comment paragraph
	ResultPath      string // path fragment of per-entry links
	MinPrimaryCells int
}

// DefaultMarkup returns the markers used by the GradCafe survey table.
func DefaultMarkup() Markup {
	return Markup{
		BorderlessClass: "tw-border-none",
		UniversityClass: "tw-font-medium",
		DegreeClass:     "tw-text-gray-500",
		TagClass:        "tw-inline-flex",
		CommentClass:    "tw-text-gray-500",
		ResultPath:      "/result/",
		MinPrimaryCells: 4,
	}
}

// DefaultBaseURL is the origin relative entry links are resolved against.
const DefaultBaseURL = "https://www.thegradcafe.com"

// Row-level failures. Check with errors.Is on MalformedRow.Cause.
var (
	ErrEmptyPrimary       = errors.New("primary row has neither university nor program")
	ErrOrphanContinuation = errors.New("continuation row without a primary row")
	ErrRowPanic           = errors.New("row parse panicked")
)

// MalformedRow reports a row that was skipped.
type MalformedRow struct {
	Index int // position among the tbody rows
	Kind  RowKind
	Cause error
}

func (m MalformedRow) Error() string {
	return fmt.Sprintf("row %d (%s): %v", m.Index, m.Kind, m.Cause)
}

func (m MalformedRow) Unwrap() error {
	return m.Cause
}

// Extraction is the result of parsing one page.
type Extraction struct {
	Records      []record.RawRecord
	Skipped      []MalformedRow
	Unrecognized int
}

// Extractor parses listing pages. It is safe for concurrent use.
type Extractor struct {
	markup Markup
	base   *url.URL
}

// New creates an Extractor. An empty baseURL selects DefaultBaseURL.
func New(markup Markup, baseURL string) (*Extractor, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if markup.MinPrimaryCells <= 0 {
		markup.MinPrimaryCells = DefaultMarkup().MinPrimaryCells
	}
	return &Extractor{markup: markup, base: base}, nil
}

// Extract parses every record on the page. A page without a table body
// yields an empty Extraction.
func (e *Extractor) Extract(html string) Extraction {
	var out Extraction

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out
	}

	body := doc.Find("tbody").First()
	if body.Length() == 0 {
		return out
	}

	rows := body.ChildrenFiltered("tr")
	n := rows.Length()

	for i := 0; i < n; {
		row := rows.Eq(i)
		kind := e.Classify(row)

		switch kind {
		case Primary:
			var rec record.RawRecord
			primaryErr := safely(func() error {
				var err error
				rec, err = e.parsePrimary(row)
				return err
			})

			j := i + 1
			for ; j < n && e.Classify(rows.Eq(j)) == Continuation; j++ {
				if primaryErr != nil {
					continue
				}
				cont := rows.Eq(j)
				if err := safely(func() error { e.applyContinuation(cont, &rec); return nil }); err != nil {
					out.Skipped = append(out.Skipped, MalformedRow{Index: j, Kind: Continuation, Cause: err})
				}
			}

			if primaryErr != nil {
				out.Skipped = append(out.Skipped, MalformedRow{Index: i, Kind: Primary, Cause: primaryErr})
			} else {
				out.Records = append(out.Records, rec)
			}
			i = j

		case Continuation:
			out.Skipped = append(out.Skipped, MalformedRow{Index: i, Kind: Continuation, Cause: ErrOrphanContinuation})
			i++

		default:
			out.Unrecognized++
			i++
		}
	}

	return out
}

// Classify decides the shape of a row. The borderless marker takes
// precedence over the cell count.
func (e *Extractor) Classify(row *goquery.Selection) RowKind {
	if row.HasClass(e.markup.BorderlessClass) {
		return Continuation
	}
	if row.ChildrenFiltered("td").Length() >= e.markup.MinPrimaryCells {
		return Primary
	}
	return Unrecognized
}

func (e *Extractor) parsePrimary(row *goquery.Selection) (record.RawRecord, error) {
	var rec record.RawRecord
	cells := row.ChildrenFiltered("td")

	uniCell := cells.Eq(0)
	university := cleanText(uniCell.Find("div." + e.markup.UniversityClass).First().Text())
	if university == "" {
		university = cleanText(uniCell.Text())
	}

	progCell := cells.Eq(1)
	// The first span is always the program; the badge is the first span
	// carrying the degree class, wherever it sits.
	spans := progCell.Find("span")
	program := cleanText(spans.First().Text())
	var degree string
	spans.Each(func(_ int, s *goquery.Selection) {
		if degree == "" && s.HasClass(e.markup.DegreeClass) {
			degree = cleanText(s.Text())
		}
	})
	if program == "" && degree == "" {
		program = cleanText(progCell.Text())
	}

	if university == "" && program == "" {
		return rec, ErrEmptyPrimary
	}

	statusCell := cells.Eq(3)
	status := cleanText(statusCell.Find("div." + e.markup.TagClass).First().Text())
	if status == "" {
		status = cleanText(statusCell.Text())
	}

	rec.University = optional(university)
	rec.Program = optional(program)
	rec.Degree = optional(degree)
	rec.Date = optional(cleanText(cells.Eq(2).Text()))
	rec.Status = optional(status)

	if link := e.entryLink(row); link != "" {
		rec.EntryLink = record.String(link)
		rec.URL = record.String(link)
	}

	return rec, nil
}

func (e *Extractor) entryLink(row *goquery.Selection) string {
	href, ok := row.Find(`a[href*="` + e.markup.ResultPath + `"]`).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		u = e.base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String()
}

func (e *Extractor) applyContinuation(row *goquery.Selection, rec *record.RawRecord) {
	row.Find("div." + e.markup.TagClass).Each(func(_ int, s *goquery.Selection) {
		applyTag(cleanText(s.Text()), rec)
	})

	if rec.Comments == nil {
		row.Find("p." + e.markup.CommentClass).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := cleanText(s.Text())
			if len(text) > 1 {
				rec.Comments = record.String(text)
				return false
			}
			return true
		})
	}
}

// safely runs fn, turning a panic into ErrRowPanic.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRowPanic, r)
		}
	}()
	return fn()
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
