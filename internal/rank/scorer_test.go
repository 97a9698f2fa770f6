package rank

import (
	"testing"

	"github.com/shopmate/backend/models"
)

func nikeAirMax() models.ProductRecord {
	return models.ProductRecord{
		ASIN:        "B0NIKE1",
		Title:       "Nike Air Max",
		Brand:       "Nike",
		Category:    "Shoes",
		Rating:      4.5,
		ReviewCount: 1200,
		ImageURL:    "https://img.example/nike.jpg",
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	rec := nikeAirMax()
	first := w.Score("nike air max", rec)
	for i := 0; i < 10; i++ {
		if got := w.Score("nike air max", rec); got != first {
			t.Fatalf("score changed across calls: %d vs %d", got, first)
		}
	}
	if first <= 0 {
		t.Fatalf("expected positive score, got %d", first)
	}
}

func TestScoreExactTitleDominates(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	exact := w.Score("nike air max", nikeAirMax())

	partial := models.ProductRecord{
		ASIN:        "B0OTHER1",
		Title:       "Air cushion running shoe",
		Category:    "Shoes",
		Rating:      4.9,
		ReviewCount: 9000,
		ImageURL:    "https://img.example/other.jpg",
	}
	if got := w.Score("nike air max", partial); got >= exact {
		t.Fatalf("partial match %d should not reach exact match %d", got, exact)
	}
}

func TestScoreEmptyQueryQualityOnly(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	got := w.Score("", nikeAirMax())
	want := w.RatingBonus + w.ReviewsBonus + w.ImageBonus
	if got != want {
		t.Fatalf("empty query score = %d, want quality-only %d", got, want)
	}

	bare := models.ProductRecord{ASIN: "B0BARE1", Title: "Plain item"}
	if got := w.Score("", bare); got != 0 {
		t.Fatalf("record without quality signals scored %d for empty query", got)
	}
}

func TestScoreShortTokensIgnored(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	rec := models.ProductRecord{ASIN: "B0TV1", Title: "Smart Television Stand"}
	// "tv" and "hd" are at the stop-noise length and never match per-token,
	// and neither appears as a literal substring of the title.
	if got := w.Score("tv hd", rec); got != 0 {
		t.Fatalf("short tokens should contribute nothing, got %d", got)
	}
}

func TestScoreQualityBonusesBelowThreshold(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	best := w.RatingBonus + w.ReviewsBonus + w.ImageBonus
	if best >= w.MinScore {
		t.Fatalf("quality-only maximum %d must stay under MinScore %d", best, w.MinScore)
	}
	if w.TokenTitle < w.MinScore {
		t.Fatalf("a single title token hit (%d) must clear MinScore %d", w.TokenTitle, w.MinScore)
	}
	if w.TitleExact <= w.MinScore {
		t.Fatalf("TitleExact %d must exceed MinScore %d", w.TitleExact, w.MinScore)
	}
}

func TestScoreAccumulatesPerToken(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	rec := models.ProductRecord{
		ASIN:        "B0BAG1",
		Title:       "Leather travel bag",
		Description: "Premium leather travel bag for weekend trips",
	}
	one := w.Score("leather", rec)
	two := w.Score("leather travel", rec)
	if two <= one {
		t.Fatalf("additional matching token should raise score: %d vs %d", two, one)
	}
}
