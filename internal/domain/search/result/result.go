package result

import (
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/highlight"
)

// Result is a single ranked document. Raw embeddings are stripped on construction.
type Result struct {
	doc          document.Document
	score        float64
	createdBy    author.Author
	lastEditedBy author.Author
	highlight    *highlight.Highlight
}

// New creates a ranked result for doc.
func New(doc document.Document, score float64) Result {
	return Result{
		doc:          doc.WithoutEmbedding(),
		score:        score,
		createdBy:    author.Unknown(doc.CreatedBy()),
		lastEditedBy: author.Unknown(doc.LastEditedBy()),
	}
}

// Document returns the ranked document without its embedding.
func (r *Result) Document() *document.Document { return &r.doc }

// Score returns the relevance score (lexical score or cosine similarity).
func (r *Result) Score() float64 { return r.score }

// CreatedBy returns the resolved creator.
func (r *Result) CreatedBy() author.Author { return r.createdBy }

// LastEditedBy returns the resolved last editor.
func (r *Result) LastEditedBy() author.Author { return r.lastEditedBy }

// Highlight returns the annotated view, nil when not requested.
func (r *Result) Highlight() *highlight.Highlight { return r.highlight }

// SetAuthors replaces the placeholder authors with directory entries where known.
func (r *Result) SetAuthors(dir map[string]author.Author) {
	if a, ok := dir[r.doc.CreatedBy()]; ok {
		r.createdBy = a
	}
	if a, ok := dir[r.doc.LastEditedBy()]; ok {
		r.lastEditedBy = a
	}
}

// SetHighlight attaches an annotated view.
func (r *Result) SetHighlight(h highlight.Highlight) { r.highlight = &h }

// AuthorIDs returns the distinct author ids referenced by results.
func AuthorIDs(results []Result) []string {
	seen := make(map[string]struct{}, len(results))
	var out []string
	for i := range results {
		for _, id := range []string{results[i].doc.CreatedBy(), results[i].doc.LastEditedBy()} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
