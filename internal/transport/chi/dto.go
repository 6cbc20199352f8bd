package chi

import (
	"time"

	"github.com/kailas-cloud/knowhub/internal/domain/analytics"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/mode"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
	"github.com/kailas-cloud/knowhub/internal/usecase/health"
	"github.com/kailas-cloud/knowhub/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/knowhub/internal/usecase/search"
)

type authorJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type versionJSON struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type highlightJSON struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

type documentJSON struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Summary      string         `json:"summary"`
	Tags         []string       `json:"tags"`
	CreatedBy    authorJSON     `json:"createdBy"`
	LastEditedBy authorJSON     `json:"lastEditedBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	HasEmbedding bool           `json:"hasEmbedding"`
	Versions     []versionJSON  `json:"versions,omitempty"`
	Score        *float64       `json:"score,omitempty"`
	Similarity   *float64       `json:"similarity,omitempty"`
	Highlights   *highlightJSON `json:"highlights,omitempty"`
}

type paginationJSON struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

type filtersJSON struct {
	Query    string     `json:"query,omitempty"`
	Tags     []string   `json:"tags"`
	Author   string     `json:"author,omitempty"`
	DateFrom *time.Time `json:"dateFrom,omitempty"`
	DateTo   *time.Time `json:"dateTo,omitempty"`
}

type searchResponse struct {
	Documents    []documentJSON `json:"documents"`
	Mode         mode.Mode      `json:"mode"`
	SearchType   mode.Mode      `json:"searchType,omitempty"`
	Query        string         `json:"query"`
	Filters      filtersJSON    `json:"filters"`
	Threshold    *float64       `json:"threshold,omitempty"`
	Count        int            `json:"count"`
	TotalResults int            `json:"totalResults"`
	Pagination   paginationJSON `json:"pagination"`
}

type referenceJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type similarResponse struct {
	ReferenceDocument referenceJSON  `json:"referenceDocument"`
	SimilarDocuments  []documentJSON `json:"similarDocuments"`
	Count             int            `json:"count"`
}

type suggestionJSON struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	ID    string `json:"id,omitempty"`
	Count int    `json:"count,omitempty"`
}

type suggestionsResponse struct {
	Suggestions []suggestionJSON `json:"suggestions"`
}

type tagJSON struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage,omitempty"`
}

type tagsResponse struct {
	Tags []tagJSON `json:"tags"`
}

type overviewJSON struct {
	TotalDocuments          int `json:"totalDocuments"`
	DocumentsWithEmbeddings int `json:"documentsWithEmbeddings"`
	DocumentsWithSummaries  int `json:"documentsWithSummaries"`
	DocumentsWithTags       int `json:"documentsWithTags"`
	EmbeddingCoverage       int `json:"embeddingCoverage"`
	SummaryCoverage         int `json:"summaryCoverage"`
	TagCoverage             int `json:"tagCoverage"`
}

type monthJSON struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
	Date  string `json:"date"`
}

type authorActivityJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	DocumentCount int       `json:"documentCount"`
	LastActive    time.Time `json:"lastActive"`
}

type analyticsResponse struct {
	Overview         overviewJSON         `json:"overview"`
	PopularTags      []tagJSON            `json:"popularTags"`
	DocumentsByMonth []monthJSON          `json:"documentsByMonth"`
	TopAuthors       []authorActivityJSON `json:"topAuthors"`
}

type aiStatsResponse struct {
	Overview overviewJSON `json:"overview"`
	TopTags  []tagJSON    `json:"topTags"`
}

type qaRequest struct {
	Question       string `json:"question"`
	IncludeDeleted bool   `json:"includeDeleted"`
}

type relevantJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}

type qaResponse struct {
	Question          string         `json:"question"`
	Answer            string         `json:"answer"`
	DocumentsUsed     int            `json:"documentsUsed"`
	RelevantDocuments []relevantJSON `json:"relevantDocuments,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

type advancedRequest struct {
	Query      string     `json:"query"`
	Tags       []string   `json:"tags"`
	Author     string     `json:"author"`
	DateFrom   *time.Time `json:"dateFrom"`
	DateTo     *time.Time `json:"dateTo"`
	SearchType mode.Mode  `json:"searchType"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Threshold  *float64   `json:"threshold"`
}

type createDocumentRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

type updateDocumentRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Summary *string   `json:"summary"`
	Tags    *[]string `json:"tags"`
}

type documentResponse struct {
	Document documentJSON `json:"document"`
}

type documentListResponse struct {
	Documents  []documentJSON `json:"documents"`
	Total      int            `json:"total"`
	Pagination paginationJSON `json:"pagination"`
}

type activityResponse struct {
	RecentActivity []documentJSON `json:"recentActivity"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    health.Status                 `json:"status"`
	Checks    map[string]health.CheckResult `json:"checks"`
	Documents int                           `json:"documents"`
	Version   string                        `json:"version"`
}

func authorToJSON(a author.Author) authorJSON {
	return authorJSON{ID: a.ID, Name: a.Name, Email: a.Email}
}

// resultToJSON renders r. scoreAsSimilarity selects the field the score is reported in.
func resultToJSON(r *result.Result, withScore, scoreAsSimilarity, withVersions bool) documentJSON {
	doc := r.Document()
	out := documentJSON{
		ID:           doc.ID(),
		Title:        doc.Title(),
		Content:      doc.Content(),
		Summary:      doc.Summary(),
		Tags:         nonNil(doc.Tags()),
		CreatedBy:    authorToJSON(r.CreatedBy()),
		LastEditedBy: authorToJSON(r.LastEditedBy()),
		CreatedAt:    doc.CreatedAt(),
		UpdatedAt:    doc.UpdatedAt(),
	}
	if withScore {
		score := r.Score()
		if scoreAsSimilarity {
			out.Similarity = &score
		} else {
			out.Score = &score
		}
	}
	if h := r.Highlight(); h != nil {
		out.Highlights = &highlightJSON{Title: h.Title, Content: h.Content, Summary: h.Summary}
	}
	if withVersions {
		for _, v := range doc.Versions() {
			out.Versions = append(out.Versions, versionJSON{
				Title:     v.Title,
				Content:   v.Content,
				Summary:   v.Summary,
				Tags:      nonNil(v.Tags),
				CreatedBy: v.CreatedBy,
				CreatedAt: v.CreatedAt,
			})
		}
	}
	return out
}

func resultsToJSON(items []result.Result, withScore, scoreAsSimilarity bool) []documentJSON {
	out := make([]documentJSON, len(items))
	for i := range items {
		out[i] = resultToJSON(&items[i], withScore, scoreAsSimilarity, false)
	}
	return out
}

func paginationToJSON(p result.Pagination) paginationJSON {
	return paginationJSON{Current: p.Current, Total: p.Total, HasNext: p.HasNext, HasPrev: p.HasPrev}
}

func filtersToJSON(query string, f filter.Filter) filtersJSON {
	return filtersJSON{
		Query:    query,
		Tags:     nonNil(f.Tags),
		Author:   f.Author,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
	}
}

func tagsToJSON(tags []analytics.TagCount) []tagJSON {
	out := make([]tagJSON, len(tags))
	for i, t := range tags {
		out[i] = tagJSON{Name: t.Name, Count: t.Count, Percentage: t.Percentage}
	}
	return out
}

func overviewToJSON(o analytics.Overview) overviewJSON {
	return overviewJSON{
		TotalDocuments:          o.TotalDocuments,
		DocumentsWithEmbeddings: o.DocumentsWithEmbeddings,
		DocumentsWithSummaries:  o.DocumentsWithSummaries,
		DocumentsWithTags:       o.DocumentsWithTags,
		EmbeddingCoverage:       o.EmbeddingCoverage,
		SummaryCoverage:         o.SummaryCoverage,
		TagCoverage:             o.TagCoverage,
	}
}

func reportToJSON(r *analytics.Report) analyticsResponse {
	out := analyticsResponse{
		Overview:         overviewToJSON(r.Overview),
		PopularTags:      tagsToJSON(r.PopularTags),
		DocumentsByMonth: make([]monthJSON, len(r.DocumentsByMonth)),
		TopAuthors:       make([]authorActivityJSON, len(r.TopAuthors)),
	}
	for i, m := range r.DocumentsByMonth {
		out.DocumentsByMonth[i] = monthJSON{Year: m.Year, Month: m.Month, Count: m.Count, Date: m.Date()}
	}
	for i, a := range r.TopAuthors {
		out.TopAuthors[i] = authorActivityJSON{
			ID:            a.Author.ID,
			Name:          a.Author.Name,
			Email:         a.Author.Email,
			DocumentCount: a.DocumentCount,
			LastActive:    a.LastActive,
		}
	}
	return out
}

func suggestionsToJSON(s searchuc.Suggestions) suggestionsResponse {
	out := make([]suggestionJSON, 0, len(s.Titles)+len(s.Tags))
	for _, t := range s.Titles {
		out = append(out, suggestionJSON{Type: "title", Value: t.Title, ID: t.ID})
	}
	for _, t := range s.Tags {
		out = append(out, suggestionJSON{Type: "tag", Value: t.Name, Count: t.Count})
	}
	return suggestionsResponse{Suggestions: out}
}

func answerToJSON(a *qa.Answer, at time.Time) qaResponse {
	out := qaResponse{
		Question:      a.Question,
		Answer:        a.Answer,
		DocumentsUsed: a.DocumentsUsed,
		Timestamp:     at,
	}
	for _, d := range a.Relevant {
		out.RelevantDocuments = append(out.RelevantDocuments, relevantJSON{
			ID: d.ID, Title: d.Title, Summary: d.Summary, Similarity: d.Similarity,
		})
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
