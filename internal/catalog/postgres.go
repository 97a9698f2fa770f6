package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/shopmate/backend/models"
)

// LoadPostgres loads the full products table into an Index. The table is the
// system of record populated by the ingest pipeline; the backend only ever
// reads it.
func LoadPostgres(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog postgres open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("catalog postgres ping: %w", err)
	}
	idx, err := loadRows(ctx, db)
	if err != nil {
		return nil, err
	}
	log.Printf("[CATALOG] indexed %d products from postgres", idx.Len())
	return idx, nil
}

func loadRows(ctx context.Context, db *sql.DB) (*Index, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT asin, title, COALESCE(category,''), COALESCE(brand,''), COALESCE(description,''),
               COALESCE(stars,0), COALESCE(reviews_count,0), price_value,
               COALESCE(image_url,''), COALESCE(url,'')
        FROM products
        ORDER BY asin`)
	if err != nil {
		return nil, fmt.Errorf("catalog postgres query: %w", err)
	}
	defer rows.Close()

	var records []models.ProductRecord
	for rows.Next() {
		var rec models.ProductRecord
		var price sql.NullFloat64
		if err := rows.Scan(&rec.ASIN, &rec.Title, &rec.Category, &rec.Brand, &rec.Description,
			&rec.Rating, &rec.ReviewCount, &price, &rec.ImageURL, &rec.TargetURL); err != nil {
			return nil, fmt.Errorf("catalog postgres scan: %w", err)
		}
		if price.Valid && price.Float64 > 0 {
			rec.Price = &models.Price{Amount: price.Float64, Currency: "USD"}
		}
		if rec.TargetURL == "" && rec.ASIN != "" {
			rec.TargetURL = "https://www.amazon.com/dp/" + rec.ASIN
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog postgres rows: %w", err)
	}
	return New(records), nil
}
