package normalize

import (
	"regexp"
	"strings"
)

var tagLike = regexp.MustCompile(`<[^>]+>`)

var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML removes tags, decodes the common named entities and collapses
// whitespace. It repeats until the text stops changing, so markup that was
// itself entity-encoded is removed too and StripHTML(StripHTML(s)) equals
// StripHTML(s).
func StripHTML(s string) (string, bool) {
	cur := s
	for range len(s) + 1 {
		next := stripOnce(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur, cur != ""
}

func stripOnce(s string) string {
	s = tagLike.ReplaceAllString(s, "")
	s = entities.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
