package domain

import "time"

// Marketplace identifies a supported source marketplace.
type Marketplace string

const (
	MarketplaceAmazon  Marketplace = "amazon"
	MarketplaceWalmart Marketplace = "walmart"
)

// ProductRecord is the normalized result of scraping one product page.
// Immutable once produced; owned by the pipeline run that created it.
type ProductRecord struct {
	Title           string      `json:"title"`
	Price           float64     `json:"price"`
	Currency        string      `json:"currency"`
	Brand           string      `json:"brand"`
	ImageURLs       []string    `json:"image_urls"`
	Description     string      `json:"description,omitempty"`
	Category        string      `json:"category,omitempty"`
	Availability    string      `json:"availability,omitempty"`
	SourceMarket    Marketplace `json:"source_marketplace"`
	SourceURL       string      `json:"source_url"`
	SourceProductID string      `json:"source_product_id"`
	ScrapedAt       time.Time   `json:"scraped_at"`
}

// Complete reports whether the record carries every field the pipeline
// requires downstream: title, positive price, and at least one image.
func (p ProductRecord) Complete() bool {
	return p.Title != "" && p.Price > 0 && len(p.ImageURLs) > 0 && p.SourceProductID != ""
}
