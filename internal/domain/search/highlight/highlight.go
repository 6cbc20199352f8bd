package highlight

import (
	"regexp"
)

// SnippetLength is the number of content runes kept in a highlighted view.
const SnippetLength = 300

const ellipsis = "..."

// Highlight is the annotated view of a document. The document itself is never modified.
type Highlight struct {
	Title   string
	Content string
	Summary string
}

// Highlighter wraps case-insensitive occurrences of a literal query in <mark> tags.
type Highlighter struct {
	re *regexp.Regexp
}

// New compiles a highlighter for query. The query is matched literally, so any
// metacharacters (as in "C++") are escaped. An empty query, or one that does not
// compile (invalid UTF-8), never matches.
func New(query string) *Highlighter {
	if query == "" {
		return &Highlighter{}
	}
	re, err := regexp.Compile(`(?i)(` + regexp.QuoteMeta(query) + `)`)
	if err != nil {
		return &Highlighter{}
	}
	return &Highlighter{re: re}
}

// Mark returns text with every match wrapped in <mark>...</mark>.
func (h *Highlighter) Mark(text string) string {
	if h.re == nil || text == "" {
		return text
	}
	return h.re.ReplaceAllString(text, "<mark>${1}</mark>")
}

// Apply builds the highlighted view of a document's title, content snippet and summary.
func (h *Highlighter) Apply(title, content, summary string) Highlight {
	out := Highlight{
		Title:   h.Mark(title),
		Content: h.Mark(Snippet(content)),
	}
	if len([]rune(content)) > SnippetLength {
		out.Content += ellipsis
	}
	if summary != "" {
		out.Summary = h.Mark(summary)
	}
	return out
}

// Snippet returns the first SnippetLength runes of content.
func Snippet(content string) string {
	r := []rune(content)
	if len(r) <= SnippetLength {
		return content
	}
	return string(r[:SnippetLength])
}
