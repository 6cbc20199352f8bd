package lexical

import (
	"math"
	"sort"

	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
)

// Field weights applied as term-frequency multipliers.
const (
	TitleWeight   = 3.0
	TagWeight     = 2.0
	ContentWeight = 1.0
)

// BM25 parameters.
const (
	k1 = 1.2
	b  = 0.75
)

// Query is an indexed text search over a filtered corpus.
type Query struct {
	Text   string
	Filter filter.Filter
	Offset int
	Limit  int
}

// Hit is a document with its lexical relevance.
type Hit struct {
	Doc   document.Document
	Score float64
}

// Hits is one page of lexical results plus the total match count.
type Hits struct {
	Total int
	Items []Hit
}

type entry struct {
	doc    document.Document
	tf     map[string]float64
	length float64
}

// Index is an in-memory BM25 index built over one request's candidate set.
type Index struct {
	entries []entry
	df      map[string]int
	avgLen  float64
}

// NewIndex indexes title, tags and content of docs. Input order is kept as the
// tie-break order of equal scores.
func NewIndex(docs []document.Document) *Index {
	ix := &Index{entries: make([]entry, 0, len(docs)), df: make(map[string]int)}
	var total float64
	for _, d := range docs {
		e := entry{doc: d, tf: make(map[string]float64)}
		add := func(text string, w float64) {
			for _, tok := range Tokenize(text) {
				e.tf[tok] += w
				e.length += w
			}
		}
		add(d.Title(), TitleWeight)
		for _, tag := range d.Tags() {
			add(tag, TagWeight)
		}
		add(d.Content(), ContentWeight)

		for tok := range e.tf {
			ix.df[tok]++
		}
		total += e.length
		ix.entries = append(ix.entries, e)
	}
	if len(ix.entries) > 0 {
		ix.avgLen = total / float64(len(ix.entries))
	}
	return ix
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.entries) }

// Search returns every document containing at least one term, best first.
// Scores are strictly positive for matches.
func (ix *Index) Search(terms []string) []Hit {
	if len(terms) == 0 || len(ix.entries) == 0 {
		return nil
	}
	n := float64(len(ix.entries))
	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		df := float64(ix.df[t])
		idf[t] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	var hits []Hit
	for _, e := range ix.entries {
		var score float64
		matched := false
		norm := 1.0
		if ix.avgLen > 0 {
			norm = 1 - b + b*e.length/ix.avgLen
		}
		for _, t := range terms {
			tf := e.tf[t]
			if tf == 0 {
				continue
			}
			matched = true
			score += idf[t] * tf * (k1 + 1) / (tf + k1*norm)
		}
		if matched {
			hits = append(hits, Hit{Doc: e.doc, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// Rank is a convenience over NewIndex(docs).Search(Terms(query)).
func Rank(docs []document.Document, query string) []Hit {
	return NewIndex(docs).Search(Terms(query))
}
