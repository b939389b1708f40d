package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"relist-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "relist.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db.Pool); err != nil {
		t.Fatal(err)
	}
	return db
}

func testProduct() *domain.ProductRecord {
	return &domain.ProductRecord{
		Title:           "Anker USB C Charger 20W",
		Price:           21.99,
		Currency:        "USD",
		Brand:           "Anker",
		ImageURLs:       []string{"https://img.example/a.jpg"},
		Category:        "Electronics",
		SourceMarket:    domain.MarketplaceAmazon,
		SourceURL:       "https://www.amazon.com/dp/B09C5RG6KV",
		SourceProductID: "B09C5RG6KV",
		ScrapedAt:       time.Now().UTC(),
	}
}

func TestSaveProductUpserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := testProduct()
	if err := db.SaveProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Price = 18.99
	if err := db.SaveProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	var count int
	var price float64
	if err := db.Pool.QueryRow(`SELECT COUNT(*), MAX(price) FROM products;`).Scan(&count, &price); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1 after upsert", count)
	}
	if price != 18.99 {
		t.Fatalf("price = %v, want refreshed 18.99", price)
	}
}

func TestSaveConversionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	res := &domain.ConversionResult{
		URL:         "https://www.amazon.com/dp/B09C5RG6KV",
		Status:      domain.StatusCompleted,
		Step:        domain.StepComplete,
		Product:     testProduct(),
		StartedAt:   now,
		CompletedAt: now,
	}
	if err := db.SaveConversion(ctx, res); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveConversion(ctx, &domain.ConversionResult{
		URL: "https://www.walmart.com/ip/x/1", Status: domain.StatusFailed,
		Step: domain.StepFailed, Error: "scraping failed", StartedAt: now, CompletedAt: now,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentConversions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d", len(got))
	}
	// Newest first.
	if got[0].Status != domain.StatusFailed {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Product == nil || got[1].Product.Title != "Anker USB C Charger 20W" {
		t.Errorf("result JSON lost product: %+v", got[1].Product)
	}
}

func TestPriceHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	url := "https://www.amazon.com/dp/B09C5RG6KV"

	for _, sell := range []float64{30.00, 31.50} {
		if err := db.SavePriceObservation(ctx, url, 21.99, sell); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SavePriceObservation(ctx, "https://www.walmart.com/ip/x/1", 9.98, 19.99); err != nil {
		t.Fatal(err)
	}

	got, err := db.PriceHistory(ctx, url, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2 for url", len(got))
	}
	if got[0].SellPrice != 31.50 {
		t.Errorf("newest first: %+v", got[0])
	}
}
