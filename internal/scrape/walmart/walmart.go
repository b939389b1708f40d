package walmart

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"relist-engine/internal/domain"
	"relist-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

var (
	itemIDRe       = regexp.MustCompile(`/ip/(?:[^/]+/)?(\d+)`)
	itemIDFallback = regexp.MustCompile(`/(\d{8,13})(?:\?|$)`)
)

const maxImages = 12

type Scraper struct{}

func New() *Scraper { return &Scraper{} }

func (s *Scraper) Marketplace() domain.Marketplace { return domain.MarketplaceWalmart }

// Parse extracts a ProductRecord from a Walmart product page. Walmart
// ships Next.js pages with a __NEXT_DATA__ JSON blob, which is far more
// stable than the rendered markup; CSS selectors are the fallback.
func (s *Scraper) Parse(rawPage, sourceURL string) (domain.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "walmart", Msg: err.Error()}
	}

	itemID := ExtractItemID(sourceURL)
	if itemID == "" {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "walmart", Field: "item_id", Msg: "no item id in URL"}
	}

	rec, ok := parseNextData(doc)
	if !ok {
		rec, err = parseHTML(doc)
		if err != nil {
			return domain.ProductRecord{}, err
		}
	}

	if rec.Title == "" {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "walmart", Field: "title", Msg: "missing"}
	}
	if rec.Price <= 0 {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "walmart", Field: "price", Msg: "missing or non-positive"}
	}
	if len(rec.ImageURLs) == 0 {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "walmart", Field: "images", Msg: "no product images"}
	}

	rec.Currency = "USD"
	rec.SourceMarket = domain.MarketplaceWalmart
	rec.SourceURL = sourceURL
	rec.SourceProductID = itemID
	rec.ScrapedAt = time.Now().UTC()
	return rec, nil
}

// ExtractItemID pulls the numeric product id out of a Walmart URL.
func ExtractItemID(raw string) string {
	if m := itemIDRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := itemIDFallback.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// ---- __NEXT_DATA__ strategy ----

type nextProduct struct {
	Name             string `json:"name"`
	Brand            string `json:"brand"`
	ShortDescription string `json:"shortDescription"`
	PriceInfo        struct {
		CurrentPrice struct {
			Price float64 `json:"price"`
		} `json:"currentPrice"`
	} `json:"priceInfo"`
	ImageInfo struct {
		AllImages []struct {
			URL string `json:"url"`
		} `json:"allImages"`
	} `json:"imageInfo"`
	Category struct {
		Path []struct {
			Name string `json:"name"`
		} `json:"path"`
	} `json:"category"`
	AvailabilityStatus string `json:"availabilityStatus"`
}

func parseNextData(doc *goquery.Document) (domain.ProductRecord, bool) {
	blob := doc.Find("script#__NEXT_DATA__").First().Text()
	if blob == "" {
		return domain.ProductRecord{}, false
	}

	var root map[string]json.RawMessage
	if json.Unmarshal([]byte(blob), &root) != nil {
		return domain.ProductRecord{}, false
	}

	product, ok := findProduct(root, 0)
	if !ok {
		return domain.ProductRecord{}, false
	}

	var images []string
	for _, img := range product.ImageInfo.AllImages {
		if img.URL != "" && len(images) < maxImages {
			images = append(images, img.URL)
		}
	}

	var crumbs []string
	for _, c := range product.Category.Path {
		if c.Name != "" {
			crumbs = append(crumbs, c.Name)
		}
	}

	return domain.ProductRecord{
		Title:        strings.TrimSpace(product.Name),
		Price:        product.PriceInfo.CurrentPrice.Price,
		Brand:        strings.TrimSpace(product.Brand),
		ImageURLs:    images,
		Description:  stripTags(product.ShortDescription),
		Category:     strings.Join(crumbs, " > "),
		Availability: product.AvailabilityStatus,
	}, true
}

// findProduct walks the nested __NEXT_DATA__ structure for an object
// that looks like a product: has a name and a priceInfo.
func findProduct(node any, depth int) (nextProduct, bool) {
	if depth > 8 {
		return nextProduct{}, false
	}

	switch v := node.(type) {
	case map[string]json.RawMessage:
		if nameRaw, hasName := v["name"]; hasName {
			if _, hasPrice := v["priceInfo"]; hasPrice {
				var name string
				if json.Unmarshal(nameRaw, &name) == nil && name != "" {
					b, _ := json.Marshal(v)
					var p nextProduct
					if json.Unmarshal(b, &p) == nil && p.Name != "" {
						return p, true
					}
				}
			}
		}
		for _, raw := range v {
			if child, ok := decodeChild(raw); ok {
				if p, found := findProduct(child, depth+1); found {
					return p, true
				}
			}
		}
	case []json.RawMessage:
		limit := len(v)
		if limit > 10 {
			limit = 10
		}
		for _, raw := range v[:limit] {
			if child, ok := decodeChild(raw); ok {
				if p, found := findProduct(child, depth+1); found {
					return p, true
				}
			}
		}
	}
	return nextProduct{}, false
}

func decodeChild(raw json.RawMessage) (any, bool) {
	t := strings.TrimSpace(string(raw))
	if strings.HasPrefix(t, "{") {
		var m map[string]json.RawMessage
		if json.Unmarshal(raw, &m) == nil {
			return m, true
		}
	} else if strings.HasPrefix(t, "[") {
		var l []json.RawMessage
		if json.Unmarshal(raw, &l) == nil {
			return l, true
		}
	}
	return nil, false
}

// ---- HTML fallback ----

var (
	titleSelectors = []string{
		`h1[itemprop="name"]`,
		`h1[data-automation-id="product-title"]`,
		"h1.prod-ProductTitle",
	}
	priceSelectors = []string{
		`span[itemprop="price"]`,
		`[data-testid="price-wrap"] span`,
		"span.price-characteristic",
	}
	brandSelectors = []string{
		`a[data-automation-id="product-brand"]`,
		".prod-brandName a",
	}
	descSelectors = []string{
		`[data-testid="product-description"]`,
		".about-desc .about-product-description",
		".prod-ProductDescription",
		"#product-description-section",
	}
)

func parseHTML(doc *goquery.Document) (domain.ProductRecord, error) {
	rec := domain.ProductRecord{}

	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			rec.Title = t
			break
		}
	}

	for _, sel := range priceSelectors {
		s := doc.Find(sel).First()
		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = s.AttrOr("content", "")
		}
		if text == "" {
			continue
		}
		if v, err := util.ParsePrice(text); err == nil {
			rec.Price = v
			break
		}
	}
	if rec.Price <= 0 {
		return rec, &util.ParseError{Marketplace: "walmart", Field: "price", Msg: "missing or non-positive"}
	}

	for _, sel := range brandSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			rec.Brand = t
			break
		}
	}

	seen := map[string]bool{}
	doc.Find(`img[data-testid="media-thumbnail"], .prod-hero-image img`).Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" || seen[src] || len(rec.ImageURLs) >= maxImages {
			return
		}
		seen[src] = true
		rec.ImageURLs = append(rec.ImageURLs, src)
	})

	for _, sel := range descSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			rec.Description = t
			break
		}
	}

	return rec, nil
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
