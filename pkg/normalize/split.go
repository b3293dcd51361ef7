package normalize

import (
	"regexp"
	"strings"
)

var (
	programAtUniversity    = regexp.MustCompile(`(?i)(.+?)\s+at\s+(.+)`)
	programParenUniversity = regexp.MustCompile(`(.+?)\s*\((.+?)\)`)
)

// SplitProgramUniversity separates a combined "program / university" string.
// It tries "X at Y", then "X (Y)", then the first comma. When nothing
// matches the whole string is the program and university is empty.
func SplitProgramUniversity(s string) (program, university string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if m := programAtUniversity.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := programParenUniversity.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if before, after, ok := strings.Cut(s, ","); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return s, ""
}
