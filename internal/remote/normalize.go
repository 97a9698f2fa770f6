package remote

import (
	"encoding/json"

	"github.com/shopmate/backend/internal/rank"
	"github.com/shopmate/backend/models"
)

// rawProduct accepts every product shape the remote service has been seen to
// emit. Aliased fields (image under four different keys, price as a number or
// an object, camelCase review counts) are resolved here, at the boundary, so
// core logic only ever sees the canonical record.
type rawProduct struct {
	ASIN        string `json:"asin"`
	Title       string `json:"title"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`

	Stars  float64 `json:"stars"`
	Rating float64 `json:"rating"`

	ReviewsCount int `json:"reviews_count"`
	ReviewsCamel int `json:"reviewsCount"`

	PriceValue float64         `json:"price_value"`
	Price      json.RawMessage `json:"price"`

	ImageURL       string `json:"image_url"`
	Image          string `json:"image"`
	ThumbnailImage string `json:"thumbnailImage"`
	ThumbnailSnake string `json:"thumbnail_image"`

	URL string `json:"url"`

	SimilarityScore float64 `json:"similarity_score"`
	RerankScore     float64 `json:"rerank_score"`
}

type priceObject struct {
	Value    float64 `json:"value"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// normalize maps a raw payload entry onto the canonical record plus its
// relevance score, first-non-empty-wins for every aliased field.
func (rp rawProduct) normalize() rank.Scored {
	rec := models.ProductRecord{
		ASIN:        rp.ASIN,
		Title:       rp.Title,
		Brand:       rp.Brand,
		Category:    rp.Category,
		Description: rp.Description,
		TargetURL:   rp.URL,
	}

	rec.Rating = firstFloat(rp.Stars, rp.Rating)
	rec.ReviewCount = firstInt(rp.ReviewsCount, rp.ReviewsCamel)

	for _, img := range []string{rp.ImageURL, rp.Image, rp.ThumbnailImage, rp.ThumbnailSnake} {
		if img != "" {
			rec.ImageURL = img
			break
		}
	}

	if amount, currency, ok := rp.price(); ok {
		rec.Price = &models.Price{Amount: amount, Currency: currency}
	}

	if rec.TargetURL == "" && rec.ASIN != "" {
		rec.TargetURL = "https://www.amazon.com/dp/" + rec.ASIN
	}

	return rank.Scored{
		ProductRecord: rec,
		Score:         firstFloat(rp.SimilarityScore, rp.RerankScore),
	}
}

func (rp rawProduct) price() (float64, string, bool) {
	if rp.PriceValue > 0 {
		return rp.PriceValue, "USD", true
	}
	if len(rp.Price) == 0 {
		return 0, "", false
	}
	// price may be a bare number or an object.
	var num float64
	if err := json.Unmarshal(rp.Price, &num); err == nil && num > 0 {
		return num, "USD", true
	}
	var obj priceObject
	if err := json.Unmarshal(rp.Price, &obj); err == nil {
		amount := firstFloat(obj.Value, obj.Amount)
		if amount > 0 {
			currency := obj.Currency
			if currency == "" {
				currency = "USD"
			}
			return amount, currency, true
		}
	}
	return 0, "", false
}

// normalizeAll converts and filters a raw product list, dropping entries
// without the required identity fields.
func normalizeAll(raw []rawProduct) []rank.Scored {
	out := make([]rank.Scored, 0, len(raw))
	for _, rp := range raw {
		sc := rp.normalize()
		if !sc.Valid() {
			continue
		}
		out = append(out, sc)
	}
	return out
}

func firstFloat(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
