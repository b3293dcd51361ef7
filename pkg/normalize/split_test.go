package normalize

import "testing"

func TestSplitProgramUniversity(t *testing.T) {
	tests := []struct {
		in         string
		program    string
		university string
	}{
		{"Computer Science at MIT", "Computer Science", "MIT"},
		{"Physics AT Stanford University", "Physics", "Stanford University"},
		{"Chemistry (Harvard University)", "Chemistry", "Harvard University"},
		{"Mathematics, University of Chicago", "Mathematics", "University of Chicago"},
		{"Economics, Yale, New Haven", "Economics", "Yale, New Haven"},
		{"Linguistics", "Linguistics", ""},
		{"", "", ""},
		{"   ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, u := SplitProgramUniversity(tt.in)
			if p != tt.program || u != tt.university {
				t.Errorf("SplitProgramUniversity(%q) = (%q, %q), want (%q, %q)", tt.in, p, u, tt.program, tt.university)
			}
		})
	}
}
