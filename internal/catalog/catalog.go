package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/shopmate/backend/models"
)

// Index is the read-only, in-memory product catalog. It is loaded once at
// startup and never mutated afterwards, so it is safe to share across
// concurrent scoring calls without locking.
type Index struct {
	records []models.ProductRecord
	byASIN  map[string]int
}

// New builds an index from the given records, preserving input order.
// Records missing asin or title are skipped and counted instead of failing
// the whole load.
func New(records []models.ProductRecord) *Index {
	idx := &Index{byASIN: make(map[string]int, len(records))}
	skipped := 0
	for _, rec := range records {
		if !rec.Valid() {
			skipped++
			continue
		}
		if _, dup := idx.byASIN[rec.ASIN]; dup {
			skipped++
			continue
		}
		idx.byASIN[rec.ASIN] = len(idx.records)
		idx.records = append(idx.records, rec)
	}
	if skipped > 0 {
		log.Printf("[CATALOG] skipped %d malformed or duplicate records", skipped)
	}
	return idx
}

// LoadFile reads a JSON product dump and indexes it. Candidate paths are
// tried in order so the same binary works from the repo root or a container
// working directory.
func LoadFile(path string) (*Index, error) {
	candidates := []string{path, "data/products.json", "../data/products.json"}
	var lastErr error
	for _, p := range candidates {
		if p == "" {
			continue
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		var records []fileProduct
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
		converted := make([]models.ProductRecord, 0, len(records))
		for _, fp := range records {
			converted = append(converted, fp.toRecord())
		}
		idx := New(converted)
		log.Printf("[CATALOG] indexed %d products from %s", idx.Len(), p)
		return idx, nil
	}
	if lastErr == nil {
		lastErr = os.ErrNotExist
	}
	return nil, fmt.Errorf("catalog load: %w", lastErr)
}

// Records returns the catalog in stable load order. Callers must not mutate
// the returned slice.
func (idx *Index) Records() []models.ProductRecord { return idx.records }

// Get returns the record for an asin, if present.
func (idx *Index) Get(asin string) (models.ProductRecord, bool) {
	i, ok := idx.byASIN[asin]
	if !ok {
		return models.ProductRecord{}, false
	}
	return idx.records[i], true
}

// Len reports the number of indexed records.
func (idx *Index) Len() int { return len(idx.records) }

// fileProduct mirrors the export shape of the product dump, which predates
// the canonical record and uses scraper field names.
type fileProduct struct {
	ASIN           string     `json:"asin"`
	Title          string     `json:"title"`
	Brand          string     `json:"brand"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Stars          float64    `json:"stars"`
	ReviewsCount   int        `json:"reviews_count"`
	Price          *filePrice `json:"price"`
	PriceValue     float64    `json:"price_value"`
	Image          string     `json:"image"`
	ImageURL       string     `json:"image_url"`
	ThumbnailImage string     `json:"thumbnailImage"`
	URL            string     `json:"url"`
}

type filePrice struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

func (fp fileProduct) toRecord() models.ProductRecord {
	rec := models.ProductRecord{
		ASIN:        fp.ASIN,
		Title:       fp.Title,
		Brand:       fp.Brand,
		Category:    fp.Category,
		Description: fp.Description,
		Rating:      fp.Stars,
		ReviewCount: fp.ReviewsCount,
		TargetURL:   fp.URL,
	}
	switch {
	case fp.Price != nil && fp.Price.Value > 0:
		cur := fp.Price.Currency
		if cur == "" {
			cur = "USD"
		}
		rec.Price = &models.Price{Amount: fp.Price.Value, Currency: cur}
	case fp.PriceValue > 0:
		rec.Price = &models.Price{Amount: fp.PriceValue, Currency: "USD"}
	}
	for _, img := range []string{fp.ImageURL, fp.Image, fp.ThumbnailImage} {
		if img != "" {
			rec.ImageURL = img
			break
		}
	}
	if rec.TargetURL == "" && rec.ASIN != "" {
		rec.TargetURL = "https://www.amazon.com/dp/" + rec.ASIN
	}
	return rec
}
