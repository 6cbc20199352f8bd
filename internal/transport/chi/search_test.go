package chi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/knowhub/internal/domain"
)

func TestTextSearch_RanksMatches(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/text?query=react&limit=10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[searchResponse](t, rr)
	if resp.Mode != "text" || resp.Query != "react" {
		t.Errorf("mode/query = %q/%q", resp.Mode, resp.Query)
	}
	if resp.Count != 2 || resp.TotalResults != 2 {
		t.Fatalf("count/total = %d/%d, want 2/2", resp.Count, resp.TotalResults)
	}
	first := resp.Documents[0]
	if first.ID != "react-hooks" {
		t.Errorf("first = %s, want react-hooks", first.ID)
	}
	if first.Score == nil || *first.Score <= 0 {
		t.Errorf("expected positive score, got %v", first.Score)
	}
	if first.CreatedBy.Name != "Ann" {
		t.Errorf("createdBy = %+v", first.CreatedBy)
	}
	if resp.Pagination != (paginationJSON{Current: 1, Total: 1}) {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
}

func TestTextSearch_EmptyQueryByRecency(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/text?limit=2&page=2", "")
	resp := decode[searchResponse](t, rr)
	if len(resp.Documents) != 1 || resp.Documents[0].ID != "react-hooks" {
		t.Fatalf("documents = %+v", resp.Documents)
	}
	if resp.Documents[0].Score != nil {
		t.Error("recency listing must not report a score")
	}
	want := paginationJSON{Current: 2, Total: 2, HasNext: false, HasPrev: true}
	if resp.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", resp.Pagination, want)
	}
}

func TestTextSearch_BadParams(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/search/text?page=abc", "")
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)
}

func TestSemanticSearch(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/semantic?query=react", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Embedding-Tokens") != "3" {
		t.Errorf("X-Embedding-Tokens = %q", rr.Header().Get("X-Embedding-Tokens"))
	}
	resp := decode[searchResponse](t, rr)
	if len(resp.Documents) != 1 || resp.Documents[0].ID != "react-hooks" {
		t.Fatalf("documents = %+v", resp.Documents)
	}
	if s := resp.Documents[0].Similarity; s == nil || *s < 0.3 {
		t.Errorf("similarity = %v", s)
	}
}

func TestSemanticSearch_ExplicitZeroThreshold(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/semantic?query=react&threshold=0", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[searchResponse](t, rr)
	if resp.Threshold == nil || *resp.Threshold != 0 {
		t.Errorf("threshold = %v, want explicit 0", resp.Threshold)
	}

	rr = env.do(t, http.MethodGet, "/api/search/semantic?query=react", "")
	if resp = decode[searchResponse](t, rr); resp.Threshold != nil {
		t.Errorf("threshold = %v, want omitted when not requested", *resp.Threshold)
	}
}

func TestSemanticSearch_QueryRequired(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/search/semantic", "")
	expectError(t, rr, http.StatusBadRequest, CodeQueryRequired)
}

func TestSemanticSearch_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.err = errors.New("upstream exploded: secret-token-123")

	rr := env.do(t, http.MethodGet, "/api/search/semantic?query=react", "")
	expectError(t, rr, http.StatusBadGateway, CodeEmbeddingProviderError)

	env.embedder.err = domain.ErrEmbeddingQuotaExceeded
	rr = env.do(t, http.MethodGet, "/api/search/semantic?query=react", "")
	expectError(t, rr, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded)
}

func TestAdvancedSearch(t *testing.T) {
	env := newTestEnv(t)

	body := `{"query":"react","tags":["react"],"author":"u1","searchType":"text"}`
	rr := env.do(t, http.MethodPost, "/api/search/advanced", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[searchResponse](t, rr)
	if resp.Mode != "advanced" || resp.SearchType != "text" {
		t.Errorf("mode/searchType = %q/%q", resp.Mode, resp.SearchType)
	}
	if resp.Filters.Author != "u1" || len(resp.Filters.Tags) != 1 {
		t.Errorf("filters = %+v", resp.Filters)
	}
	if resp.TotalResults != 2 {
		t.Errorf("total = %d, want 2", resp.TotalResults)
	}

	rr = env.do(t, http.MethodPost, "/api/search/advanced", `{"query":"go","searchType":"semantic","author":"u2"}`)
	resp = decode[searchResponse](t, rr)
	if len(resp.Documents) != 1 || resp.Documents[0].ID != "go-chan" {
		t.Errorf("semantic advanced = %+v", resp.Documents)
	}
}

func TestAdvancedSearch_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/search/advanced", `{"searchType":"hybrid"}`)
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)

	rr = env.do(t, http.MethodPost, "/api/search/advanced", `{not json`)
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)

	rr = env.do(t, http.MethodPost, "/api/search/advanced",
		`{"dateFrom":"2025-02-01T00:00:00Z","dateTo":"2025-01-01T00:00:00Z"}`)
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)
}

func TestHighlightSearch(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/highlight?query=hooks", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[searchResponse](t, rr)
	if len(resp.Documents) != 1 || resp.Documents[0].Highlights == nil {
		t.Fatalf("documents = %+v", resp.Documents)
	}
	if got := resp.Documents[0].Highlights.Title; got != "React <mark>hooks</mark>" {
		t.Errorf("highlighted title = %q", got)
	}

	rr = env.do(t, http.MethodGet, "/api/search/highlight", "")
	expectError(t, rr, http.StatusBadRequest, CodeQueryRequired)

	rr = env.do(t, http.MethodGet, "/api/search/highlight?query=react%FF", "")
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)
}

func TestSimilarDocuments(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/similar/react-hooks", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[similarResponse](t, rr)
	if resp.ReferenceDocument.ID != "react-hooks" || resp.ReferenceDocument.Title != "React hooks" {
		t.Errorf("reference = %+v", resp.ReferenceDocument)
	}
	for _, d := range resp.SimilarDocuments {
		if d.ID == "react-hooks" {
			t.Error("reference must not be listed as similar")
		}
	}
	if resp.Count != len(resp.SimilarDocuments) {
		t.Errorf("count = %d, documents = %d", resp.Count, len(resp.SimilarDocuments))
	}

	rr = env.do(t, http.MethodGet, "/api/search/similar/no-vec", "")
	expectError(t, rr, http.StatusNotFound, CodeReferenceUnavailable)
}

func TestSuggestionsAndTags(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/suggestions?query=re", "")
	resp := decode[suggestionsResponse](t, rr)
	var titles, tags int
	for _, s := range resp.Suggestions {
		switch s.Type {
		case "title":
			titles++
		case "tag":
			tags++
			if s.Value == "react" && s.Count != 2 {
				t.Errorf("react count = %d, want 2", s.Count)
			}
		}
	}
	if titles != 2 || tags != 1 {
		t.Errorf("titles/tags = %d/%d, want 2/1", titles, tags)
	}

	rr = env.do(t, http.MethodGet, "/api/search/suggestions?query=r", "")
	if resp := decode[suggestionsResponse](t, rr); len(resp.Suggestions) != 0 {
		t.Errorf("short prefix suggestions = %+v", resp.Suggestions)
	}

	rr = env.do(t, http.MethodGet, "/api/search/tags", "")
	tagsResp := decode[tagsResponse](t, rr)
	if len(tagsResp.Tags) != 3 || tagsResp.Tags[0].Name != "react" {
		t.Errorf("tags = %+v", tagsResp.Tags)
	}
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search/analytics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[analyticsResponse](t, rr)
	if resp.Overview.TotalDocuments != 3 || resp.Overview.DocumentsWithEmbeddings != 2 {
		t.Errorf("overview = %+v", resp.Overview)
	}
	if resp.Overview.EmbeddingCoverage != 67 {
		t.Errorf("embedding coverage = %d, want 67", resp.Overview.EmbeddingCoverage)
	}
	if len(resp.TopAuthors) != 2 || resp.TopAuthors[0].Name != "Ann" || resp.TopAuthors[0].DocumentCount != 2 {
		t.Errorf("top authors = %+v", resp.TopAuthors)
	}
}
