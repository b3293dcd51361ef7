package normalize

import (
	"regexp"
	"strconv"
	"testing"
)

// --- Status Tests ---

func TestStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Accepted", StatusAccepted, true},
		{"accepted on 15 Jan", StatusAccepted, true},
		{"Rejected via E-mail", StatusRejected, true},
		{"Waitlisted", StatusWaitlisted, true},
		{"Wait listed", StatusWaitlisted, true},
		{"  Interview  ", "Interview", true},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Status(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Status(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStatus_Idempotent(t *testing.T) {
	inputs := []string{"Accepted", "REJECTED", "wait listed", " Interview ", "Other decision", "accept? reject?"}
	for _, in := range inputs {
		once, _ := Status(in)
		twice, _ := Status(once)
		if once != twice {
			t.Errorf("Status not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

// --- Date Tests ---

func TestDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"01/15/2026", "2026-01-15", true},
		{"2026-01-15", "2026-01-15", true},
		{"Added on 1/5/2026", "2026-01-05", true},
		{"02/29/2024", "2024-02-29", true},
		{"02/29/2023", "", false},
		{"13/32/2026", "", false},
		{"01/15/26", "2026-01-15", true},
		{"01/15/75", "1975-01-15", true},
		{"03-04-2025", "2025-03-04", true},
		{"2026-1-5T10:00", "2026-01-05", true},
		{"2001-12-32", "", false},
		{"2026-02-30", "", false},
		{"2024-00-15", "", false},
		{"111/15/2026", "", false},
		{"January 15, 2026", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Date(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Date(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExpandYear(t *testing.T) {
	tests := map[int]int{0: 2000, 49: 2049, 50: 1950, 99: 1999, 2026: 2026}
	for in, want := range tests {
		if got := expandYear(in); got != want {
			t.Errorf("expandYear(%d) = %d, want %d", in, got, want)
		}
	}
}

// --- GPA Tests ---

func TestGPA(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"3.95", "3.95", true},
		{"GPA 3.956", "3.96", true},
		{"4", "4.00", true},
		{"4.0", "4.00", true},
		{"0", "0.00", true},
		{"5.5", "", false},
		{"4.01", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := GPA(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GPA(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGPA_OutputShape(t *testing.T) {
	shape := regexp.MustCompile(`^\d\.\d{2}$`)
	inputs := []string{"3", "3.1", "2.999", "0.004", "3.50 / 4.00", "3.9999", "1e3", "-2.5", ".5"}
	for _, in := range inputs {
		got, ok := GPA(in)
		if !ok {
			continue
		}
		if !shape.MatchString(got) {
			t.Errorf("GPA(%q) = %q, does not match %s", in, got, shape)
		}
		v, err := strconv.ParseFloat(got, 64)
		if err != nil || v < 0 || v > 4 {
			t.Errorf("GPA(%q) = %q, out of range", in, got)
		}
	}
}

// --- GRE Tests ---

func TestGRE(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"170pts", "170", true},
		{"999", "", false},
		{"0", "0", true},
		{"800", "800", true},
		{"801", "", false},
		{"V 165", "165", true},
		{"0165", "165", true},
		{"none", "", false},
		{"99999999999999999999999", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := GRE(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GRE(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// --- Degree Tests ---

func TestDegree(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"PhD", DegreePhD, true},
		{"phd", DegreePhD, true},
		{"PharmD", DegreePhD, true},
		{"DDS", DegreePhD, true},
		{"Masters", DegreeMS, true},
		{"M.S.", DegreeMS, true},
		{"MS", DegreeMS, true},
		{"MBA", DegreeMBA, true},
		{"MD", DegreeMD, true},
		{"MFA", DegreeOther, true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Degree(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Degree(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
