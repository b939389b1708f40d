package scrape

import (
	"errors"
	"testing"

	"relist-engine/internal/domain"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		url  string
		want domain.Marketplace
	}{
		{"https://www.amazon.com/dp/B09C5RG6KV", domain.MarketplaceAmazon},
		{"https://amzn.to/3xYz", domain.MarketplaceAmazon},
		{"https://www.walmart.com/ip/12345678", domain.MarketplaceWalmart},
	}
	for _, c := range cases {
		got, err := Detect(c.url)
		if err != nil {
			t.Fatalf("Detect(%q): %v", c.url, err)
		}
		if got != c.want {
			t.Errorf("Detect(%q) = %s, want %s", c.url, got, c.want)
		}
	}
}

func TestDetectUnsupportedHost(t *testing.T) {
	_, err := Detect("https://www.ebay.com/itm/123")
	if !errors.Is(err, ErrUnsupportedMarketplace) {
		t.Fatalf("expected ErrUnsupportedMarketplace, got %v", err)
	}
}

func TestForURLDispatch(t *testing.T) {
	s, err := ForURL("https://www.walmart.com/ip/12345678")
	if err != nil {
		t.Fatalf("ForURL: %v", err)
	}
	if s.Marketplace() != domain.MarketplaceWalmart {
		t.Fatalf("marketplace = %s", s.Marketplace())
	}
}
