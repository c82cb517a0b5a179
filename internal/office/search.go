package office

import (
	"slices"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
)

// SearchEngine ranks the simulated web index against a query and remembers
// the last query and its results.
type SearchEngine struct {
	index   []models.SearchResult
	query   string
	results []models.SearchResult
}

// NewSearchEngine creates an engine over index.
func NewSearchEngine(index []models.SearchResult) *SearchEngine {
	return &SearchEngine{index: index}
}

// Search ranks the index for query and records it as the current search.
func (s *SearchEngine) Search(query string) []models.SearchResult {
	s.query = query
	s.results = Rank(s.index, query)
	return append([]models.SearchResult(nil), s.results...)
}

// Query returns the last query.
func (s *SearchEngine) Query() string { return s.query }

// Results returns the results of the last query.
func (s *SearchEngine) Results() []models.SearchResult {
	return append([]models.SearchResult(nil), s.results...)
}

// Reset forgets the current search.
func (s *SearchEngine) Reset() {
	s.query = ""
	s.results = nil
}

// Rank scores every result per query term: +1 when the term appears in the
// title, snippet or category, +2 when a tag contains it, +3 when the title
// contains it. Results scoring zero are dropped; ties keep index order.
func Rank(index []models.SearchResult, query string) []models.SearchResult {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		result models.SearchResult
		score  int
	}
	var hits []scored
	for _, r := range index {
		title := strings.ToLower(r.Title)
		text := strings.ToLower(r.Title + " " + r.Snippet + " " + r.Category)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
			if slices.ContainsFunc(r.Tags, func(tag string) bool { return strings.Contains(tag, term) }) {
				score += 2
			}
			if strings.Contains(title, term) {
				score += 3
			}
		}
		if score > 0 {
			hits = append(hits, scored{r, score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int { return b.score - a.score })
	if len(hits) > constants.MaxSearchResults {
		hits = hits[:constants.MaxSearchResults]
	}
	out := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out
}
