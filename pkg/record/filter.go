package record

import (
	"fmt"
	"strings"
)

// ResultFilter selects which decision types a listing page returns.
type ResultFilter string

const (
	FilterAll        ResultFilter = "all"
	FilterAccepted   ResultFilter = "accepted"
	FilterRejected   ResultFilter = "rejected"
	FilterWaitlisted ResultFilter = "waitlisted"
)

// siteVocabulary maps filters to the value the survey site expects in its
// decision query parameter. An empty value means no filtering.
var siteVocabulary = map[ResultFilter]string{
	FilterAll:        "",
	FilterAccepted:   "Accepted",
	FilterRejected:   "Rejected",
	FilterWaitlisted: "Wait listed",
}

// ParseResultFilter parses a filter name, case-insensitively.
// An empty string selects FilterAll.
func ParseResultFilter(s string) (ResultFilter, error) {
	f := ResultFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	if _, ok := siteVocabulary[f]; !ok {
		return "", fmt.Errorf("unknown result filter %q (valid: all, accepted, rejected, waitlisted)", s)
	}
	return f, nil
}

// SiteValue returns the filter in the site's vocabulary.
func (f ResultFilter) SiteValue() string {
	return siteVocabulary[f]
}

// Valid reports whether f is a known filter.
func (f ResultFilter) Valid() bool {
	_, ok := siteVocabulary[f]
	return ok
}
