package search

import (
	"context"

	"github.com/kailas-cloud/knowhub/internal/domain/analytics"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
	"github.com/kailas-cloud/knowhub/internal/domain/search/request"
)

// TitleSuggestion is a document whose title contains the typed text.
type TitleSuggestion struct {
	ID    string
	Title string
}

// Suggestions are the completions for a partially typed query.
type Suggestions struct {
	Titles []TitleSuggestion
	Tags   []analytics.TagCount
}

// Suggest returns title and tag completions. Prefixes shorter than
// request.MinSuggestionLength get an empty answer without touching the corpus.
func (s *Service) Suggest(ctx context.Context, req *request.SuggestRequest) (Suggestions, error) {
	if req.TooShort() {
		return Suggestions{}, nil
	}

	docs, err := s.find(ctx, filter.Filter{})
	if err != nil {
		return Suggestions{}, err
	}

	per := req.PerKind()
	var out Suggestions
	for i := range docs {
		if len(out.Titles) == per {
			break
		}
		if lexical.ContainsFold(docs[i].Title(), req.Prefix()) {
			out.Titles = append(out.Titles, TitleSuggestion{ID: docs[i].ID(), Title: docs[i].Title()})
		}
	}
	for _, t := range analytics.CountTags(docs, 0) {
		if len(out.Tags) == per {
			break
		}
		if lexical.ContainsFold(t.Name, req.Prefix()) {
			out.Tags = append(out.Tags, t)
		}
	}
	return out, nil
}

// Tags lists the most used tags of the non-deleted corpus.
func (s *Service) Tags(ctx context.Context) ([]analytics.TagCount, error) {
	docs, err := s.find(ctx, filter.Filter{})
	if err != nil {
		return nil, err
	}
	return analytics.CountTags(docs, analytics.TagListLimit), nil
}
