package rank

import (
	"strings"

	"github.com/shopmate/backend/config"
	"github.com/shopmate/backend/models"
)

// Weights holds the additive scoring bonuses. The exact values are tunable
// configuration; the defaults keep three orderings intact: an exact title
// match beats everything, a single token hit in the title clears MinScore,
// and quality bonuses alone never do.
type Weights struct {
	TitleExact       int
	BrandExact       int
	TitleContains    int
	BrandContains    int
	CategoryContains int
	TokenTitle       int
	TokenBrand       int
	TokenCategory    int
	TokenDescription int
	RatingBonus      int
	ReviewsBonus     int
	ImageBonus       int
	MinScore         int
	DefaultLimit     int
}

// DefaultWeights returns the stock scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		TitleExact:       100,
		BrandExact:       60,
		TitleContains:    40,
		BrandContains:    25,
		CategoryContains: 15,
		TokenTitle:       10,
		TokenBrand:       6,
		TokenCategory:    4,
		TokenDescription: 2,
		RatingBonus:      3,
		ReviewsBonus:     3,
		ImageBonus:       2,
		MinScore:         10,
		DefaultLimit:     20,
	}
}

// WeightsFromConfig maps the viper search section onto Weights, falling back
// to defaults for unset (zero) values.
func WeightsFromConfig(sc config.SearchConfig) Weights {
	w := DefaultWeights()
	apply := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	apply(&w.TitleExact, sc.TitleExact)
	apply(&w.BrandExact, sc.BrandExact)
	apply(&w.TitleContains, sc.TitleContains)
	apply(&w.BrandContains, sc.BrandContains)
	apply(&w.CategoryContains, sc.CategoryContains)
	apply(&w.TokenTitle, sc.TokenTitle)
	apply(&w.TokenBrand, sc.TokenBrand)
	apply(&w.TokenCategory, sc.TokenCategory)
	apply(&w.TokenDescription, sc.TokenDescription)
	apply(&w.RatingBonus, sc.RatingBonus)
	apply(&w.ReviewsBonus, sc.ReviewsBonus)
	apply(&w.ImageBonus, sc.ImageBonus)
	apply(&w.MinScore, sc.MinScore)
	apply(&w.DefaultLimit, sc.DefaultLimit)
	return w
}

// minTokenLen drops stop-noise: tokens this short or shorter never match.
const minTokenLen = 2

// Score rates a record against a free-text query. It is a pure function:
// identical inputs always yield the identical non-negative score, regardless
// of call order. An empty query scores from quality bonuses only, which gives
// the "browse" ordering.
func (w Weights) Score(query string, rec models.ProductRecord) int {
	q := strings.ToLower(strings.TrimSpace(query))
	title := strings.ToLower(rec.Title)
	brand := strings.ToLower(rec.Brand)
	category := strings.ToLower(rec.Category)
	description := strings.ToLower(rec.Description)

	score := 0
	if q != "" {
		if title == q {
			score += w.TitleExact
		}
		if brand != "" && brand == q {
			score += w.BrandExact
		}
		if strings.Contains(title, q) {
			score += w.TitleContains
		}
		if brand != "" && strings.Contains(brand, q) {
			score += w.BrandContains
		}
		if category != "" && strings.Contains(category, q) {
			score += w.CategoryContains
		}
		for _, tok := range strings.Fields(q) {
			if len(tok) <= minTokenLen {
				continue
			}
			if strings.Contains(title, tok) {
				score += w.TokenTitle
			}
			if brand != "" && strings.Contains(brand, tok) {
				score += w.TokenBrand
			}
			if category != "" && strings.Contains(category, tok) {
				score += w.TokenCategory
			}
			if description != "" && strings.Contains(description, tok) {
				score += w.TokenDescription
			}
		}
	}

	// Quality tie-breaks keep sparse cards from outranking populated ones.
	if rec.Rating >= 4.0 {
		score += w.RatingBonus
	}
	if rec.ReviewCount > 1000 {
		score += w.ReviewsBonus
	}
	if rec.ImageURL != "" {
		score += w.ImageBonus
	}
	return score
}
