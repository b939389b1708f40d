package convert

import (
	"reflect"
	"strings"
	"testing"

	"relist-engine/internal/domain"
)

func sampleProduct() *domain.ProductRecord {
	imgs := make([]string, 15)
	for i := range imgs {
		imgs[i] = "https://img.example.com/p" + string(rune('a'+i)) + ".jpg"
	}
	return &domain.ProductRecord{
		Title:           "Ozark Trail 24oz Insulated Water Bottle",
		Price:           9.98,
		Currency:        "USD",
		Brand:           "Ozark Trail",
		ImageURLs:       imgs,
		Description:     "Keeps drinks cold | Double wall vacuum insulation | BPA free",
		Category:        "Sports & Outdoors > Hydration",
		SourceMarket:    domain.MarketplaceWalmart,
		SourceProductID: "577989907",
	}
}

func TestConvertDraftFields(t *testing.T) {
	c := New("modern")
	d := c.Convert(sampleProduct())

	if len(d.Title) > 80 {
		t.Errorf("title over limit: %d chars", len(d.Title))
	}
	if d.SKU != "RL-577989907" {
		t.Errorf("sku = %q", d.SKU)
	}
	if len(d.ImageURLs) != 12 {
		t.Errorf("images = %d, want cap at 12", len(d.ImageURLs))
	}
	if d.CategoryID != "888" {
		t.Errorf("category id = %q, want 888 for sports", d.CategoryID)
	}
	if d.Condition != "New" || d.Quantity != 1 {
		t.Errorf("condition/quantity = %q/%d", d.Condition, d.Quantity)
	}
	if d.Price != 9.98 {
		t.Errorf("draft price = %v, want source cost", d.Price)
	}
	if !strings.Contains(d.Description, "<div") {
		t.Error("description is not HTML")
	}
}

func TestConvertDeterministic(t *testing.T) {
	c := New("classic")
	a := c.Convert(sampleProduct())
	b := c.Convert(sampleProduct())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same product produced different drafts")
	}
}

func TestMapCategory(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Books > Literature & Fiction", "267"},
		{"Jewelry > Necklaces", "281"},
		{"Electronics > Headphones", "293"},
		{"Home & Kitchen", "11700"},
		{"Something Unrecognizable", DefaultCategoryID},
		{"", DefaultCategoryID},
	}
	for _, c := range cases {
		if got := MapCategory(c.in); got != c.want {
			t.Errorf("MapCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFeeCategory(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Books > Fiction", "books"},
		{"Jewelry", "jewelry"},
		{"Musical Instruments > Guitars", "musical_instruments"},
		{"Business & Industrial", "business_industrial"},
		{"Electronics", ""},
	}
	for _, c := range cases {
		if got := FeeCategory(c.in); got != c.want {
			t.Errorf("FeeCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
