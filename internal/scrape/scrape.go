package scrape

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"relist-engine/internal/domain"
	"relist-engine/internal/scrape/amazon"
	"relist-engine/internal/scrape/util"
	"relist-engine/internal/scrape/walmart"
)

// ErrUnsupportedMarketplace means the URL host matched no known
// marketplace. Rejected before any network activity.
var ErrUnsupportedMarketplace = errors.New("unsupported marketplace (supported: amazon.com, walmart.com)")

// Scraper parses one marketplace's product pages.
type Scraper interface {
	Marketplace() domain.Marketplace
	Parse(rawPage, sourceURL string) (domain.ProductRecord, error)
}

// Detect classifies a product URL by host. Pure function; the actual
// parser is picked from the result.
func Detect(rawURL string) (domain.Marketplace, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("bad product URL %q: %w", rawURL, ErrUnsupportedMarketplace)
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "amazon.") || strings.Contains(host, "amzn."):
		return domain.MarketplaceAmazon, nil
	case strings.Contains(host, "walmart."):
		return domain.MarketplaceWalmart, nil
	}
	return "", fmt.Errorf("host %q: %w", host, ErrUnsupportedMarketplace)
}

// ForURL returns the scraper for a product URL.
func ForURL(rawURL string) (Scraper, error) {
	mk, err := Detect(rawURL)
	if err != nil {
		return nil, err
	}
	switch mk {
	case domain.MarketplaceAmazon:
		return amazon.New(), nil
	case domain.MarketplaceWalmart:
		return walmart.New(), nil
	}
	return nil, ErrUnsupportedMarketplace
}

// CanonicalURL normalizes a product URL for cache keys and dedup,
// using the marketplace-specific canonical form where one exists.
func CanonicalURL(rawURL string) string {
	mk, err := Detect(rawURL)
	if err != nil {
		return util.Canonicalize(rawURL)
	}
	if mk == domain.MarketplaceAmazon {
		return amazon.CanonicalURL(rawURL)
	}
	return util.Canonicalize(rawURL)
}
