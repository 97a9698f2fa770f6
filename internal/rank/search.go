package rank

import (
	"sort"
	"strings"

	"github.com/shopmate/backend/internal/catalog"
	"github.com/shopmate/backend/models"
)

// Scored pairs a record with its ephemeral relevance score. Scores exist only
// while ranking and merging; they are stripped before results leave the
// package.
type Scored struct {
	models.ProductRecord
	Score float64
}

// Searcher is the local search executor: it ranks the whole catalog against
// a query with the configured weights. It holds no mutable state and is safe
// for concurrent use.
type Searcher struct {
	index   *catalog.Index
	weights Weights
}

// NewSearcher builds a Searcher over the given catalog.
func NewSearcher(index *catalog.Index, weights Weights) *Searcher {
	return &Searcher{index: index, weights: weights}
}

// Weights exposes the active scoring configuration.
func (s *Searcher) Weights() Weights { return s.weights }

// Search scores every catalog record, keeps those at or above MinScore,
// sorts descending with a stable catalog-order tie-break and truncates to
// limit. It never fails: an unmatched query yields an empty result.
//
// An empty query skips the threshold so the quality bonuses alone define a
// browse ordering instead of an error.
func (s *Searcher) Search(query string, limit int) []models.ProductRecord {
	scored := s.searchScored(query, limit)
	out := make([]models.ProductRecord, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.ProductRecord)
	}
	return out
}

// SearchScored is Search without the score strip, for callers that merge
// results from several sources.
func (s *Searcher) SearchScored(query string, limit int) []Scored {
	return s.searchScored(query, limit)
}

func (s *Searcher) searchScored(query string, limit int) []Scored {
	if limit <= 0 {
		limit = s.weights.DefaultLimit
	}
	browse := strings.TrimSpace(query) == ""

	records := s.index.Records()
	scored := make([]Scored, 0, len(records))
	for _, rec := range records {
		sc := s.weights.Score(query, rec)
		if !browse && sc < s.weights.MinScore {
			continue
		}
		scored = append(scored, Scored{ProductRecord: rec, Score: float64(sc)})
	}

	// SliceStable keeps catalog order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
