package standardize

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/gradfetch/pkg/llm"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

type fakeStandardizer struct {
	name  string
	err   error
	calls int
}

func (f *fakeStandardizer) Standardize(_ context.Context, program, university string) (Names, error) {
	f.calls++
	if f.err != nil {
		return Names{}, f.err
	}
	return Names{Program: program + " (" + f.name + ")", University: university + " (" + f.name + ")"}, nil
}

func (f *fakeStandardizer) Name() string { return f.name }

type fakeProvider struct {
	reply string
	err   error
	last  llm.Request
}

func (p *fakeProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.reply}, nil
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-1" }

// --- Chain Tests ---

func TestChain_FallsThrough(t *testing.T) {
	bad := &fakeStandardizer{name: "bad", err: errors.New("down")}
	good := &fakeStandardizer{name: "good"}
	c := NewChain(bad, good)

	names, err := c.Standardize(context.Background(), "CS", "MIT")
	require.NoError(t, err)
	assert.Equal(t, "CS (good)", names.Program)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, "chain(bad->good)", c.Name())
}

func TestChain_AllFail(t *testing.T) {
	cause := errors.New("down")
	c := NewChain(&fakeStandardizer{name: "a", err: cause}, &fakeStandardizer{name: "b", err: cause})

	_, err := c.Standardize(context.Background(), "CS", "MIT")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "tried: a, b")
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain().Standardize(context.Background(), "CS", "MIT")
	assert.ErrorIs(t, err, ErrNoStandardizer)
}

// --- Apply Tests ---

func TestApply_NeverOverwrites(t *testing.T) {
	s := &fakeStandardizer{name: "s"}
	recs := []record.NormalizedRecord{
		{Program: record.String("CS"), University: record.String("MIT")},
		{
			Program:             record.String("CS"),
			University:          record.String("MIT"),
			LLMGeneratedProgram: record.String("Computer Science"),
		},
		{
			Program:                record.String("Physics"),
			LLMGeneratedProgram:    record.String("Physics"),
			LLMGeneratedUniversity: record.String("Stanford University"),
		},
		{},
	}

	n, err := Apply(context.Background(), s, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "CS (s)", record.Value(recs[0].LLMGeneratedProgram))
	assert.Equal(t, "MIT (s)", record.Value(recs[0].LLMGeneratedUniversity))

	assert.Equal(t, "Computer Science", record.Value(recs[1].LLMGeneratedProgram))
	assert.Equal(t, "MIT (s)", record.Value(recs[1].LLMGeneratedUniversity))

	assert.Equal(t, "Stanford University", record.Value(recs[2].LLMGeneratedUniversity))
	assert.Nil(t, recs[3].LLMGeneratedProgram)

	// The identical pair in recs[1] is served from the cache.
	assert.Equal(t, 1, s.calls)
}

func TestApply_FailureLeavesRecord(t *testing.T) {
	recs := []record.NormalizedRecord{{Program: record.String("CS")}}

	n, err := Apply(context.Background(), &fakeStandardizer{name: "s", err: errors.New("boom")}, recs)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, recs[0].LLMGeneratedProgram)
}

func TestApply_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs := []record.NormalizedRecord{{Program: record.String("CS")}}
	_, err := Apply(ctx, &fakeStandardizer{name: "s"}, recs)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Fuzzy Tests ---

func TestLoadCanon(t *testing.T) {
	unis, err := LoadCanon(filepath.Join("testdata", "canon_universities.txt"))
	require.NoError(t, err)
	assert.Len(t, unis, 5)
	assert.Equal(t, "Massachusetts Institute of Technology", unis[0])
	assert.Equal(t, "University of California, Berkeley", unis[4])

	_, err = LoadCanon(filepath.Join("testdata", "missing.txt"))
	assert.Error(t, err)
}

func TestFuzzyMatcher(t *testing.T) {
	programs, err := LoadCanon(filepath.Join("testdata", "canon_programs.txt"))
	require.NoError(t, err)
	unis, err := LoadCanon(filepath.Join("testdata", "canon_universities.txt"))
	require.NoError(t, err)

	m := NewFuzzyMatcher(programs, unis, 0)

	tests := []struct {
		program, university string
		want                Names
	}{
		{"computer science", "stanford universty", Names{"Computer Science", "Stanford University"}},
		{"Physics", "Johns Hopkins University", Names{"Physics", "Johns Hopkins University"}},
		{"Underwater Basket Weaving", "MIT", Names{"Underwater Basket Weaving", "MIT"}},
		{"", "", Names{"", ""}},
	}
	for _, tt := range tests {
		got, err := m.Standardize(context.Background(), tt.program, tt.university)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q / %q", tt.program, tt.university)
	}
}

func TestFuzzyMatcher_ThresholdDefault(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewFuzzyMatcher(nil, nil, 1.5).threshold)
	assert.Equal(t, 0.9, NewFuzzyMatcher(nil, nil, 0.9).threshold)
}

// --- LLM Tests ---

func TestLLMStandardizer(t *testing.T) {
	p := &fakeProvider{reply: `Sure! {"program": "Computer Science", "university": ""} hope that helps`}
	s := NewLLMStandardizer(p)

	names, err := s.Standardize(context.Background(), "CS", "MIT")
	require.NoError(t, err)
	assert.Equal(t, Names{Program: "Computer Science", University: "MIT"}, names)
	assert.True(t, p.last.JSON)
	assert.Contains(t, p.last.Messages[1].Content, "- Program: CS")
	assert.Equal(t, "llm:fake", s.Name())
}

func TestLLMStandardizer_Errors(t *testing.T) {
	_, err := NewLLMStandardizer(&fakeProvider{reply: "I cannot help"}).Standardize(context.Background(), "CS", "MIT")
	assert.ErrorIs(t, err, ErrNoJSON)

	cause := errors.New("quota")
	_, err = NewLLMStandardizer(&fakeProvider{err: cause}).Standardize(context.Background(), "CS", "MIT")
	assert.ErrorIs(t, err, cause)
}

func TestParseNames_Truncated(t *testing.T) {
	names, err := parseNames(`{"program": "Physics", "university": "MIT"`)
	require.NoError(t, err)
	assert.Equal(t, Names{Program: "Physics", University: "MIT"}, names)
}

func TestChain_LLMThenFuzzy(t *testing.T) {
	c := NewChain(
		NewLLMStandardizer(&fakeProvider{err: errors.New("offline")}),
		NewFuzzyMatcher([]string{"Physics"}, nil, 0),
	)
	names, err := c.Standardize(context.Background(), "physics", "Somewhere")
	require.NoError(t, err)
	assert.Equal(t, Names{Program: "Physics", University: "Somewhere"}, names)
}
