// engine/internal/convert/convert.go
//
// Pure transformation from a scraped ProductRecord to a ListingDraft.
// No I/O happens here; the same product always yields the same draft.
package convert

import (
	"strings"

	"relist-engine/internal/domain"
)

// DefaultCategoryID is the catch-all listing category used when no
// keyword in the product's category path matches the lookup table.
const DefaultCategoryID = "99" // Everything Else

const maxImages = 12

// categoryIDs maps category keywords to target marketplace category
// ids. Lookup walks the product category path and checks each keyword
// in order; first hit wins.
var categoryIDs = []struct {
	keyword string
	id      string
}{
	{"book", "267"},
	{"jewelry", "281"},
	{"musical instrument", "619"},
	{"business", "12576"},
	{"industrial", "12576"},
	{"electronic", "293"},
	{"computer", "58058"},
	{"cell phone", "15032"},
	{"camera", "625"},
	{"video game", "1249"},
	{"toy", "220"},
	{"clothing", "11450"},
	{"shoes", "11450"},
	{"sport", "888"},
	{"outdoor", "888"},
	{"health", "26395"},
	{"beauty", "26395"},
	{"home", "11700"},
	{"kitchen", "11700"},
	{"garden", "11700"},
	{"pet", "1281"},
	{"automotive", "6000"},
	{"baby", "2984"},
	{"office", "12576"},
}

// Converter builds listing drafts. The description template is fixed
// at construction from config.
type Converter struct {
	template Template
}

func New(template string) *Converter {
	return &Converter{template: Template(template)}
}

// Convert derives a listing draft from a scraped product. Price on
// the draft starts as the source cost; the pricing stage overrides it
// with the suggested sell price.
func (c *Converter) Convert(p *domain.ProductRecord) *domain.ListingDraft {
	images := p.ImageURLs
	if len(images) > maxImages {
		images = images[:maxImages]
	}
	return &domain.ListingDraft{
		Title:       OptimizeTitle(p.Title, p.Brand),
		Description: BuildDescription(p, c.template),
		Price:       p.Price,
		Currency:    p.Currency,
		ImageURLs:   images,
		CategoryID:  MapCategory(p.Category),
		Condition:   "New",
		SKU:         "RL-" + p.SourceProductID,
		Quantity:    1,
	}
}

// MapCategory resolves a scraped category path to a listing category
// id. Unresolved categories map to DefaultCategoryID rather than
// failing the conversion.
func MapCategory(category string) string {
	lower := strings.ToLower(category)
	if lower == "" {
		return DefaultCategoryID
	}
	for _, c := range categoryIDs {
		if strings.Contains(lower, c.keyword) {
			return c.id
		}
	}
	return DefaultCategoryID
}

// FeeCategory normalizes a scraped category path to the key used by
// the pricing fee table. Unmatched paths return "" so pricing falls
// back to its default rate.
func FeeCategory(category string) string {
	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "book"):
		return "books"
	case strings.Contains(lower, "jewelry"):
		return "jewelry"
	case strings.Contains(lower, "musical instrument"):
		return "musical_instruments"
	case strings.Contains(lower, "business"), strings.Contains(lower, "industrial"):
		return "business_industrial"
	default:
		return ""
	}
}
