package amazon

import (
	"errors"
	"strings"
	"testing"

	"relist-engine/internal/scrape/util"
)

const productPage = `<!DOCTYPE html>
<html><body>
<span id="productTitle"> Anker PowerCore 10000 Portable Charger, Ultra-Compact Power Bank </span>
<div id="bylineInfo">Visit the Anker Store</div>
<div class="a-price"><span class="a-offscreen">$21.99</span></div>
<div id="imgTagWrapperId">
  <img id="landingImage" src="https://m.media-amazon.com/images/I/abc123._SX300_.jpg"
       data-old-hires="https://m.media-amazon.com/images/I/abc123._SL1500_.jpg"/>
</div>
<div id="feature-bullets">
  <ul>
    <li><span class="a-list-item">Ultra-compact design</span></li>
    <li><span class="a-list-item">High-speed charging</span></li>
  </ul>
</div>
<div id="wayfinding-breadcrumbs_feature_div">
  <a href="/electronics">Electronics</a>
  <a href="/portable-chargers">Portable Chargers</a>
</div>
<div id="availability"><span>In Stock</span></div>
</body></html>`

func TestParseFullProductPage(t *testing.T) {
	s := New()
	rec, err := s.Parse(productPage, "https://www.amazon.com/dp/B09C5RG6KV?ref=sr_1_3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if !strings.HasPrefix(rec.Title, "Anker PowerCore 10000") {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Price != 21.99 {
		t.Fatalf("price = %v, want 21.99", rec.Price)
	}
	if rec.Brand != "Anker" {
		t.Fatalf("brand = %q, want Anker (byline prefix/suffix not stripped)", rec.Brand)
	}
	if rec.SourceProductID != "B09C5RG6KV" {
		t.Fatalf("asin = %q", rec.SourceProductID)
	}
	if len(rec.ImageURLs) == 0 {
		t.Fatalf("expected at least one image")
	}
	if !strings.Contains(rec.ImageURLs[0], "_SL1500_") {
		t.Fatalf("image not upgraded to high-res: %q", rec.ImageURLs[0])
	}
	if !strings.Contains(rec.Description, "Ultra-compact design | High-speed charging") {
		t.Fatalf("description = %q", rec.Description)
	}
	if rec.Category != "Electronics > Portable Chargers" {
		t.Fatalf("category = %q", rec.Category)
	}
}

func TestParseMissingPriceIsParseError(t *testing.T) {
	page := `<html><body>
<span id="productTitle">Some Product</span>
<div id="imgTagWrapperId"><img src="https://m.media-amazon.com/images/I/x._SX300_.jpg"/></div>
</body></html>`

	s := New()
	_, err := s.Parse(page, "https://www.amazon.com/dp/B000000001")
	var pe *util.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Field != "price" {
		t.Fatalf("field = %q, want price", pe.Field)
	}
}

func TestParseZeroPriceIsParseError(t *testing.T) {
	page := `<html><body>
<span id="productTitle">Some Product</span>
<div class="a-price"><span class="a-offscreen">$0.00</span></div>
<div id="imgTagWrapperId"><img src="https://m.media-amazon.com/images/I/x._SX300_.jpg"/></div>
</body></html>`

	s := New()
	_, err := s.Parse(page, "https://www.amazon.com/dp/B000000001")
	var pe *util.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for zero price, got %v", err)
	}
}

func TestParseMissingTitleIsParseError(t *testing.T) {
	s := New()
	_, err := s.Parse("<html><body></body></html>", "https://www.amazon.com/dp/B000000001")
	var pe *util.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Field != "title" {
		t.Fatalf("field = %q, want title", pe.Field)
	}
}

func TestExtractASIN(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com/dp/B09C5RG6KV", "B09C5RG6KV"},
		{"https://www.amazon.com/gp/product/B07XJ8C8F5?th=1", "B07XJ8C8F5"},
		{"https://www.amazon.com/Some-Product-Name/dp/B01LYCLS24/ref=sr_1_1", "B01LYCLS24"},
		{"https://www.amazon.com/s?k=chargers", ""},
	}
	for _, c := range cases {
		if got := ExtractASIN(c.url); got != c.want {
			t.Errorf("ExtractASIN(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	got := CanonicalURL("https://www.amazon.com/Anker-PowerCore/dp/B09C5RG6KV/ref=sr_1_3?pd_rd_w=x&tag=foo")
	if got != "https://www.amazon.com/dp/B09C5RG6KV" {
		t.Fatalf("canonical = %q", got)
	}
}
