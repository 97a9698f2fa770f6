package rank

import (
	"sort"

	"github.com/shopmate/backend/models"
)

// Merge deduplicates the concatenation of the given result lists by asin,
// re-sorts by descending score and truncates to limit. When the same asin
// appears more than once the winner is decided only by the comparison rule
// (higher score when both are scored, otherwise the longer title as a proxy
// for richer data), so the outcome does not depend on which list a duplicate
// came from. Ties keep the first occurrence, and the ephemeral scores are
// stripped from the returned records.
//
// Callers resolve the effective limit (request parameter or configured
// default) before calling; a non-positive limit keeps every deduplicated
// record.
func Merge(lists [][]Scored, limit int) []models.ProductRecord {
	type slot struct {
		item  Scored
		first int // first-occurrence index, stable tie-break
	}
	byASIN := make(map[string]*slot)
	order := 0
	for _, list := range lists {
		for _, cand := range list {
			if !cand.Valid() {
				continue
			}
			cur, seen := byASIN[cand.ASIN]
			if !seen {
				byASIN[cand.ASIN] = &slot{item: cand, first: order}
				order++
				continue
			}
			if better(cand, cur.item) {
				cur.item = cand
			}
		}
	}

	slots := make([]*slot, 0, len(byASIN))
	for _, s := range byASIN {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].item.Score != slots[j].item.Score {
			return slots[i].item.Score > slots[j].item.Score
		}
		return slots[i].first < slots[j].first
	})

	if limit > 0 && len(slots) > limit {
		slots = slots[:limit]
	}
	out := make([]models.ProductRecord, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.item.ProductRecord)
	}
	return out
}

// better decides which duplicate to keep.
func better(a, b Scored) bool {
	if a.Score > 0 && b.Score > 0 {
		return a.Score > b.Score
	}
	return len(a.Title) > len(b.Title)
}
