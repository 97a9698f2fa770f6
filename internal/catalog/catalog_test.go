package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopmate/backend/models"
)

func TestNewSkipsInvalidAndDuplicateRecords(t *testing.T) {
	t.Parallel()
	idx := New([]models.ProductRecord{
		{ASIN: "B01", Title: "Kettle"},
		{ASIN: "", Title: "No asin"},
		{ASIN: "B02", Title: ""},
		{ASIN: "B01", Title: "Kettle duplicate"},
		{ASIN: "B03", Title: "Toaster"},
	})
	if idx.Len() != 2 {
		t.Fatalf("want 2 indexed records, got %d", idx.Len())
	}
	if rec, ok := idx.Get("B01"); !ok || rec.Title != "Kettle" {
		t.Fatalf("first occurrence should win for duplicates, got %+v ok=%v", rec, ok)
	}
	if _, ok := idx.Get("B02"); ok {
		t.Fatal("record without title must not be indexed")
	}
}

func TestNewPreservesOrder(t *testing.T) {
	t.Parallel()
	idx := New([]models.ProductRecord{
		{ASIN: "B03", Title: "Third"},
		{ASIN: "B01", Title: "First"},
		{ASIN: "B02", Title: "Second"},
	})
	got := idx.Records()
	want := []string{"B03", "B01", "B02"}
	for i, asin := range want {
		if got[i].ASIN != asin {
			t.Fatalf("position %d: got %s want %s", i, got[i].ASIN, asin)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "products.json")
	dump := `[
		{"asin":"B0X1","title":"Espresso machine","brand":"Brewco","category":"Kitchen","stars":4.6,"reviews_count":2100,"price":{"value":129.0,"currency":"USD"},"image_url":"https://img/espresso.jpg","url":"https://shop.example/espresso"},
		{"asin":"B0X2","title":"Moka pot","price_value":24.5,"thumbnailImage":"https://img/moka.jpg"},
		{"asin":"","title":"dropped"},
		{"asin":"B0X3"}
	]`
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	idx, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("want 2 records, got %d", idx.Len())
	}

	espresso, _ := idx.Get("B0X1")
	if espresso.Price == nil || espresso.Price.Amount != 129.0 {
		t.Fatalf("price object not converted: %+v", espresso.Price)
	}
	if espresso.Rating != 4.6 || espresso.ReviewCount != 2100 {
		t.Fatalf("stars/reviews not converted: %+v", espresso)
	}
	if espresso.TargetURL != "https://shop.example/espresso" {
		t.Fatalf("url not kept: %q", espresso.TargetURL)
	}

	moka, _ := idx.Get("B0X2")
	if moka.Price == nil || moka.Price.Amount != 24.5 || moka.Price.Currency != "USD" {
		t.Fatalf("price_value not converted: %+v", moka.Price)
	}
	if moka.ImageURL != "https://img/moka.jpg" {
		t.Fatalf("thumbnail alias not picked up: %q", moka.ImageURL)
	}
	if moka.TargetURL != "https://www.amazon.com/dp/B0X2" {
		t.Fatalf("missing url should fall back to the product page: %q", moka.TargetURL)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("malformed dump should fail the load")
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("missing file should fail the load")
	}
}
