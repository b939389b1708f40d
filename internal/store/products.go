package store

import (
	"context"
	"encoding/json"
	"time"

	"relist-engine/internal/domain"
)

// SaveProduct upserts a scraped product keyed by marketplace plus
// source product id, so re-scrapes refresh price and availability
// instead of duplicating rows.
func (d *DB) SaveProduct(ctx context.Context, p *domain.ProductRecord) error {
	images, err := json.Marshal(p.ImageURLs)
	if err != nil {
		return err
	}
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO products
  (source_marketplace, source_product_id, source_url, title, brand, price,
   currency, category, availability, description, image_urls, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_marketplace, source_product_id) DO UPDATE SET
  source_url = excluded.source_url,
  title = excluded.title,
  brand = excluded.brand,
  price = excluded.price,
  currency = excluded.currency,
  category = excluded.category,
  availability = excluded.availability,
  description = excluded.description,
  image_urls = excluded.image_urls,
  scraped_at = excluded.scraped_at;
`,
		string(p.SourceMarket), p.SourceProductID, p.SourceURL, p.Title, p.Brand,
		p.Price, p.Currency, p.Category, p.Availability, p.Description,
		string(images), p.ScrapedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// SavePriceObservation appends one cost/sell pair for margin history.
func (d *DB) SavePriceObservation(ctx context.Context, sourceURL string, cost, sellPrice float64) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO price_observations (source_url, cost, sell_price, observed_at)
VALUES (?, ?, ?, ?);
`, sourceURL, cost, sellPrice, time.Now().UTC().Format(time.RFC3339))
	return err
}

// PriceObservation is one recorded cost/sell pair.
type PriceObservation struct {
	SourceURL  string    `json:"source_url"`
	Cost       float64   `json:"cost"`
	SellPrice  float64   `json:"sell_price"`
	ObservedAt time.Time `json:"observed_at"`
}

// PriceHistory lists observations for a source URL, newest first.
func (d *DB) PriceHistory(ctx context.Context, sourceURL string, limit int) ([]PriceObservation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT source_url, cost, sell_price, observed_at
FROM price_observations
WHERE source_url = ?
ORDER BY id DESC
LIMIT ?;
`, sourceURL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceObservation
	for rows.Next() {
		var o PriceObservation
		var at string
		if err := rows.Scan(&o.SourceURL, &o.Cost, &o.SellPrice, &at); err != nil {
			return nil, err
		}
		o.ObservedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, o)
	}
	return out, rows.Err()
}
