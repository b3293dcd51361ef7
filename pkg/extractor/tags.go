package extractor

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

var (
	seasonTag = regexp.MustCompile(`(?i)(Fall|Spring|Summer|Winter)\s*(\d{4})`)
	gpaTag    = regexp.MustCompile(`(?i)GPA\s*(\d+\.?\d*)`)
	greTag    = regexp.MustCompile(`(?i)GRE\s*([A-Z])?\s*(\d{2,3})\b`)
	awTag     = regexp.MustCompile(`(?i)(?:AW|Analytical)\s*(\d+\.?\d*)`)
)

// Section scores on the current GRE scale.
const (
	minGRESection = 130
	maxGRESection = 170
)

// applyTag matches one continuation tag against the known tag kinds. Each
// tag feeds at most one field and a field keeps the first value it gets,
// except that an International tag always wins over American.
func applyTag(text string, rec *record.RawRecord) {
	if text == "" {
		return
	}

	if m := seasonTag.FindStringSubmatch(text); m != nil {
		if rec.SemesterYear == nil {
			rec.SemesterYear = record.String(titleCase(m[1]) + " " + m[2])
		}
		return
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "international") {
		rec.International = record.Bool(true)
		return
	}
	if strings.Contains(lower, "american") {
		if rec.International == nil {
			rec.International = record.Bool(false)
		}
		return
	}

	if m := gpaTag.FindStringSubmatch(text); m != nil {
		setOnce(&rec.GPA, m[1])
		return
	}

	if m := greTag.FindStringSubmatch(text); m != nil {
		score := 0
		for _, r := range m[2] {
			score = score*10 + int(r-'0')
		}
		if score < minGRESection || score > maxGRESection {
			return
		}
		switch strings.ToUpper(m[1]) {
		case "V":
			setOnce(&rec.GREVerbal, m[2])
		case "Q":
			setOnce(&rec.GREQuantitative, m[2])
		}
		return
	}

	if m := awTag.FindStringSubmatch(text); m != nil {
		setOnce(&rec.GREAW, m[1])
	}
}

func setOnce(field **string, value string) {
	if *field == nil {
		*field = record.String(value)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
