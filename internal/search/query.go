package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevesearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams selects and shapes one catalog search.
type SearchParams struct {
	Query string   // Free text; empty matches everything
	Kinds []string // Restrict to document kinds (empty keeps all)

	GenreSlugs []string // Restrict to exact genre slugs

	Limit  int
	Offset int

	SortBy    string // "relevance" (default) or "title"
	SortOrder string // "asc" or "desc"

	IncludeFacets bool     // Compute facet counts over the full match set
	FacetFields   []string // Fields to facet on, usually kind and genres
	Highlight     bool     // Wrap title matches in <mark> tags
}

// DefaultSearchParams is the baseline the API handler patches query
// parameters onto.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		Offset:        0,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		FacetFields:   []string{"kind", "genres"},
		Highlight:     true,
	}
}

// SearchResult is one page of hits plus the totals and facets that
// describe the whole match set.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"tookMs"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitzero"`
}

// SearchHit is a single matched title.
type SearchHit struct {
	ID         string            `json:"id"`
	Kind       DocKind           `json:"kind"`
	ImdbID     string            `json:"imdbId"`
	Title      string            `json:"title"`
	Score      float64           `json:"score"`
	Genres     []string          `json:"genres,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets breaks the match set down by kind and genre.
type SearchFacets struct {
	Kinds  []FacetCount `json:"kinds,omitempty"`
	Genres []FacetCount `json:"genres,omitempty"`
}

// FacetCount says how many matches carry one facet value.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs one query against the index and converts the raw Bleve
// result into the API shape.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.Fields = []string{"id", "kind", "imdb_id", "title", "genres"}
	req.SortBy(sortOrder(params))

	if params.IncludeFacets {
		for _, field := range params.FacetFields {
			req.AddFacet(field, bleve.NewFacetRequest(field, 20))
		}
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}

	raw, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  raw.Total,
		TookMs: raw.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(raw.Hits)),
	}
	for _, hit := range raw.Hits {
		result.Hits = append(result.Hits, convertHit(hit))
	}
	if params.IncludeFacets {
		result.Facets = SearchFacets{
			Kinds:  facetCounts(raw, "kind"),
			Genres: facetCounts(raw, "genres"),
		}
	}

	return result, nil
}

// buildSearchQuery assembles the Bleve query. The text disjunction and
// each active filter are ANDed together.
func buildSearchQuery(params SearchParams) query.Query {
	var parts []query.Query

	if params.Query != "" {
		parts = append(parts, textQuery(params.Query))
	}
	if f := termsFilter("kind", params.Kinds); f != nil {
		parts = append(parts, f)
	}
	if f := termsFilter("genres", params.GenreSlugs); f != nil {
		parts = append(parts, f)
	}

	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return parts[0]
	default:
		return bleve.NewConjunctionQuery(parts...)
	}
}

// textQuery matches titles first and overviews second. A fuzzy and a
// prefix variant on the title buy typo tolerance and autocomplete.
func textQuery(text string) query.Query {
	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetBoost(3.0)

	overview := bleve.NewMatchQuery(text)
	overview.SetField("overview")

	fuzzy := bleve.NewFuzzyQuery(text)
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	alternatives := []query.Query{title, overview, fuzzy}

	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		alternatives = append(alternatives, prefix)
	}

	return bleve.NewDisjunctionQuery(alternatives...)
}

// termsFilter ORs exact term matches on one field, nil when no values
// are given.
func termsFilter(field string, values []string) query.Query {
	if len(values) == 0 {
		return nil
	}
	terms := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms[i] = tq
	}
	return bleve.NewDisjunctionQuery(terms...)
}

// sortOrder translates the sort params into Bleve sort fields.
func sortOrder(params SearchParams) []string {
	if params.SortBy == "title" {
		if params.SortOrder == "desc" {
			return []string{"-title"}
		}
		return []string{"title"}
	}
	return []string{"-_score"}
}

// convertHit pulls the stored fields out of a Bleve match.
func convertHit(hit *blevesearch.DocumentMatch) SearchHit {
	out := SearchHit{
		ID:    hit.ID,
		Score: hit.Score,
	}

	if v, ok := hit.Fields["kind"].(string); ok {
		out.Kind = DocKind(v)
	}
	if v, ok := hit.Fields["imdb_id"].(string); ok {
		out.ImdbID = v
	}
	if v, ok := hit.Fields["title"].(string); ok {
		out.Title = v
	}
	// Bleve stores a bare string when a field holds one value and a
	// slice when it holds several.
	switch g := hit.Fields["genres"].(type) {
	case string:
		out.Genres = []string{g}
	case []interface{}:
		for _, v := range g {
			if slug, ok := v.(string); ok {
				out.Genres = append(out.Genres, slug)
			}
		}
	}

	for field, fragments := range hit.Fragments {
		if len(fragments) == 0 {
			continue
		}
		if out.Highlights == nil {
			out.Highlights = make(map[string]string)
		}
		out.Highlights[field] = fragments[0]
	}

	return out
}

// facetCounts flattens one named facet from the raw result.
func facetCounts(raw *bleve.SearchResult, name string) []FacetCount {
	facet, ok := raw.Facets[name]
	if !ok {
		return nil
	}
	counts := make([]FacetCount, 0, len(facet.Terms.Terms()))
	for _, term := range facet.Terms.Terms() {
		counts = append(counts, FacetCount{Value: term.Term, Count: term.Count})
	}
	return counts
}
