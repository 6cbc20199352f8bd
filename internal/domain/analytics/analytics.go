package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
)

// Report sizes.
const (
	PopularTagsLimit = 20
	TopAuthorsLimit  = 10
	TagListLimit     = 50
	AIStatsTagsLimit = 10
	TrailingMonths   = 12
)

// Overview counts the non-deleted corpus and its enrichment coverage.
// Coverage values are rounded integer percentages.
type Overview struct {
	TotalDocuments          int
	DocumentsWithEmbeddings int
	DocumentsWithSummaries  int
	DocumentsWithTags       int
	EmbeddingCoverage       int
	SummaryCoverage         int
	TagCoverage             int
}

// TagCount is one bucket of the tag histogram.
type TagCount struct {
	Name       string
	Count      int
	Percentage int
}

// MonthCount is the number of documents created in a calendar month (UTC).
type MonthCount struct {
	Year  int
	Month int
	Count int
}

// Date returns the bucket as "YYYY-MM".
func (m MonthCount) Date() string { return fmt.Sprintf("%04d-%02d", m.Year, m.Month) }

// AuthorActivity summarizes one contributor.
type AuthorActivity struct {
	Author        author.Author
	DocumentCount int
	LastActive    time.Time
}

// Report is the full corpus analytics payload.
type Report struct {
	Overview         Overview
	PopularTags      []TagCount
	DocumentsByMonth []MonthCount
	TopAuthors       []AuthorActivity
}

// AIStats reports how much of the corpus carries generated enrichments.
type AIStats struct {
	Overview Overview
	TopTags  []TagCount
}

// Percentage returns round(part/total*100), or 0 for an empty total.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Summarize computes the overview of docs. Callers pass non-deleted documents.
func Summarize(docs []document.Document) Overview {
	o := Overview{TotalDocuments: len(docs)}
	for i := range docs {
		if docs[i].HasEmbedding() {
			o.DocumentsWithEmbeddings++
		}
		if docs[i].Summary() != "" {
			o.DocumentsWithSummaries++
		}
		if len(docs[i].Tags()) > 0 {
			o.DocumentsWithTags++
		}
	}
	o.EmbeddingCoverage = Percentage(o.DocumentsWithEmbeddings, o.TotalDocuments)
	o.SummaryCoverage = Percentage(o.DocumentsWithSummaries, o.TotalDocuments)
	o.TagCoverage = Percentage(o.DocumentsWithTags, o.TotalDocuments)
	return o
}

// CountTags builds the tag histogram, most used first, ties by name.
// Percentage is relative to the number of documents. limit <= 0 means no limit.
func CountTags(docs []document.Document, limit int) []TagCount {
	counts := make(map[string]int)
	for i := range docs {
		for _, t := range docs[i].Tags() {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, TagCount{Name: name, Count: c, Percentage: Percentage(c, len(docs))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return top(out, limit)
}

// ByMonth counts documents created at or after since, bucketed by UTC month,
// oldest first. Empty months are omitted.
func ByMonth(docs []document.Document, since time.Time) []MonthCount {
	type key struct{ y, m int }
	counts := make(map[key]int)
	for i := range docs {
		c := docs[i].CreatedAt()
		if c.Before(since) {
			continue
		}
		c = c.UTC()
		counts[key{c.Year(), int(c.Month())}]++
	}
	out := make([]MonthCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, MonthCount{Year: k.y, Month: k.m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// TrailingWindowStart returns the start of the trailing monthly window ending at now.
func TrailingWindowStart(now time.Time) time.Time {
	return now.AddDate(0, -TrailingMonths, 0)
}

// TopAuthors groups docs by creator and joins them with dir. Creators missing
// from dir are dropped. Sorted by document count, ties by most recent activity.
func TopAuthors(docs []document.Document, dir map[string]author.Author, limit int) []AuthorActivity {
	byID := make(map[string]*AuthorActivity)
	var order []string
	for i := range docs {
		id := docs[i].CreatedBy()
		a, ok := byID[id]
		if !ok {
			a = &AuthorActivity{}
			byID[id] = a
			order = append(order, id)
		}
		a.DocumentCount++
		if u := docs[i].UpdatedAt(); u.After(a.LastActive) {
			a.LastActive = u
		}
	}

	out := make([]AuthorActivity, 0, len(byID))
	for _, id := range order {
		au, ok := dir[id]
		if !ok {
			continue
		}
		a := byID[id]
		a.Author = au
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DocumentCount != out[j].DocumentCount {
			return out[i].DocumentCount > out[j].DocumentCount
		}
		return out[i].LastActive.After(out[j].LastActive)
	})
	return top(out, limit)
}

// CreatorIDs returns the distinct creator ids of docs.
func CreatorIDs(docs []document.Document) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range docs {
		id := docs[i].CreatedBy()
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Build assembles the analytics report over non-deleted docs at time now.
func Build(docs []document.Document, dir map[string]author.Author, now time.Time) Report {
	return Report{
		Overview:         Summarize(docs),
		PopularTags:      CountTags(docs, PopularTagsLimit),
		DocumentsByMonth: ByMonth(docs, TrailingWindowStart(now)),
		TopAuthors:       TopAuthors(docs, dir, TopAuthorsLimit),
	}
}

// BuildAIStats assembles the enrichment coverage report.
func BuildAIStats(docs []document.Document) AIStats {
	return AIStats{Overview: Summarize(docs), TopTags: CountTags(docs, AIStatsTagsLimit)}
}

func top[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
