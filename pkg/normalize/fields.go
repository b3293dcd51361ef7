// Package normalize cleans individual admission-result fields and whole
// records.
//
// Every field function is total: bad input yields ok == false rather than
// an error or a panic. Callers treat a false result as a null field.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical status labels.
const (
	StatusAccepted   = "Accepted"
	StatusRejected   = "Rejected"
	StatusWaitlisted = "Waitlisted"
)

// Canonical degree labels.
const (
	DegreePhD   = "PhD"
	DegreeMS    = "MS"
	DegreeMBA   = "MBA"
	DegreeMD    = "MD"
	DegreeOther = "Other"
)

type keywordRule struct {
	label  string
	tokens []string
}

// Checked in order; the first rule with a matching token wins.
var statusRules = []keywordRule{
	{StatusAccepted, []string{"ACCEPT"}},
	{StatusRejected, []string{"REJECT"}},
	{StatusWaitlisted, []string{"WAITLIST", "WAIT LIST"}},
}

var degreeRules = []keywordRule{
	{DegreePhD, []string{"PHD", "PHARM", "DDS"}},
	{DegreeMS, []string{"MS", "M.S", "MASTER"}},
	{DegreeMBA, []string{"MBA"}},
	{DegreeMD, []string{"MD"}},
}

func matchKeyword(s string, rules []keywordRule) (string, bool) {
	upper := strings.ToUpper(s)
	for _, r := range rules {
		for _, tok := range r.tokens {
			if strings.Contains(upper, tok) {
				return r.label, true
			}
		}
	}
	return "", false
}

// Status maps a decision string onto Accepted, Rejected or Waitlisted.
// Text that matches none of them is returned trimmed.
func Status(s string) (string, bool) {
	if label, ok := matchKeyword(s, statusRules); ok {
		return label, true
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Degree classifies a degree badge. Unrecognized non-empty text is "Other".
func Degree(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	if label, ok := matchKeyword(s, degreeRules); ok {
		return label, true
	}
	return DegreeOther, true
}

var (
	slashDate = regexp.MustCompile(`(?:^|\D)(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})(?:\D|$)`)
	isoDate   = regexp.MustCompile(`(?:^|\D)(\d{4})-(\d{1,2})-(\d{1,2})(?:\D|$)`)
	dashDate  = regexp.MustCompile(`(?:^|\D)(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})(?:\D|$)`)
)

// Date finds a MM/DD/YYYY, YYYY-MM-DD or MM-DD-YYYY date anywhere in s and
// returns it as YYYY-MM-DD. Two-digit years below 50 land in the 2000s,
// the rest in the 1900s. Impossible calendar dates are rejected.
func Date(s string) (string, bool) {
	if m := slashDate.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}
	// An ISO date that fails the calendar check is rejected outright; its
	// tail must not be reread as MM-DD-YY.
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}
	if m := dashDate.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}
	return "", false
}

func calendarDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	y = expandYear(y)
	if m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

func expandYear(y int) int {
	switch {
	case y >= 100:
		return y
	case y < 50:
		return 2000 + y
	default:
		return 1900 + y
	}
}

var decimalNumber = regexp.MustCompile(`\d+\.?\d*`)

// GPA returns the first number in s with two decimals, if it is a GPA on a
// 4.0 scale.
func GPA(s string) (string, bool) {
	match := decimalNumber.FindString(s)
	if match == "" {
		return "", false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 || v > 4.0 {
		return "", false
	}
	return fmt.Sprintf("%.2f", v), true
}

// MaxGREScore is the top of the legacy GRE scale accepted by GRE.
const MaxGREScore = 800

// GRE keeps only the digits of s and accepts the result on the 0-800 scale.
func GRE(s string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return "", false
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < 0 || v > MaxGREScore {
		return "", false
	}
	return strconv.Itoa(v), true
}
