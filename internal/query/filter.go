package query

import (
	"sort"

	"github.com/shopmate/backend/models"
)

// Apply filters and re-orders an already ranked result list according to the
// parsed constraints. Records without a price are dropped only when a price
// filter is active; rank order is preserved unless an explicit sort was
// requested.
func (p Parsed) Apply(records []models.ProductRecord) []models.ProductRecord {
	out := records
	if p.MinPrice != nil || p.MaxPrice != nil || p.MinRating != nil {
		out = make([]models.ProductRecord, 0, len(records))
		for _, rec := range records {
			if p.MinRating != nil && rec.Rating < *p.MinRating {
				continue
			}
			if p.MinPrice != nil || p.MaxPrice != nil {
				if rec.Price == nil {
					continue
				}
				if p.MinPrice != nil && rec.Price.Amount < *p.MinPrice {
					continue
				}
				if p.MaxPrice != nil && rec.Price.Amount > *p.MaxPrice {
					continue
				}
			}
			out = append(out, rec)
		}
	}

	switch p.SortBy {
	case SortPriceAsc:
		out = sorted(out, func(a, b models.ProductRecord) bool { return priceOf(a) < priceOf(b) })
	case SortPriceDesc:
		out = sorted(out, func(a, b models.ProductRecord) bool { return priceOf(a) > priceOf(b) })
	case SortRating:
		out = sorted(out, func(a, b models.ProductRecord) bool { return a.Rating > b.Rating })
	case SortPopular:
		out = sorted(out, func(a, b models.ProductRecord) bool { return a.ReviewCount > b.ReviewCount })
	}
	return out
}

func sorted(records []models.ProductRecord, less func(a, b models.ProductRecord) bool) []models.ProductRecord {
	cp := append([]models.ProductRecord(nil), records...)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	return cp
}

// priceOf treats missing prices as most expensive so they sink in ascending
// price order.
func priceOf(rec models.ProductRecord) float64 {
	if rec.Price == nil {
		return 1e9
	}
	return rec.Price.Amount
}
