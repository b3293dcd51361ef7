package standardize

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the minimum Jaro-Winkler similarity for a match.
const DefaultThreshold = 0.85

// FuzzyMatcher maps names onto the closest entry of a canonical list.
type FuzzyMatcher struct {
	programs     []string
	universities []string
	threshold    float64
}

// NewFuzzyMatcher creates a matcher. A threshold outside (0, 1] falls back
// to DefaultThreshold.
func NewFuzzyMatcher(programs, universities []string, threshold float64) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &FuzzyMatcher{
		programs:     programs,
		universities: universities,
		threshold:    threshold,
	}
}

// Standardize never fails; a name with no close canonical entry is kept.
func (m *FuzzyMatcher) Standardize(_ context.Context, program, university string) (Names, error) {
	return Names{
		Program:    m.match(program, m.programs),
		University: m.match(university, m.universities),
	}, nil
}

// Name returns the standardizer identifier.
func (m *FuzzyMatcher) Name() string {
	return "fuzzy"
}

func (m *FuzzyMatcher) match(text string, candidates []string) string {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return text
	}

	best, bestScore := "", m.threshold
	for _, c := range candidates {
		score := matchr.JaroWinkler(needle, strings.ToLower(c), false)
		if score >= bestScore && (best == "" || score > bestScore) {
			best, bestScore = c, score
		}
	}
	if best == "" {
		return strings.TrimSpace(text)
	}
	return best
}

// LoadCanon reads a canonical name list, one name per line. Blank lines
// and lines starting with # are ignored.
func LoadCanon(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open canonical list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read canonical list: %w", err)
	}
	return names, nil
}
