package amazon

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"relist-engine/internal/domain"
	"relist-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// ASIN: 10-char alphanumeric after /dp/ or /gp/product/
var asinRe = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})`)
var bareASINRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Amazon moves its markup around constantly; each field gets an ordered
// list of selectors, first hit wins.
var (
	titleSelectors = []string{
		"#productTitle",
		"span#title",
		"#title_feature_div span",
		"h1#title span",
	}
	priceSelectors = []string{
		".a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		"#corePrice_feature_div .a-offscreen",
		"#corePriceDisplay_desktop_feature_div .a-offscreen",
		".a-price-whole",
		"span.a-color-price",
	}
	brandSelectors = []string{
		"#bylineInfo",
		"a#brand",
		"#brand",
		"tr.po-brand td.a-span9 span",
	}
	imageSelectors = []string{
		"#imgTagWrapperId img",
		"#landingImage",
		"#imgBlkFront",
		".imgTagWrapper img",
	}
	descSelectors = []string{
		"#feature-bullets",
		"#productDescription",
		"#aplus_feature_div",
	}
	categorySelectors = []string{
		"#wayfinding-breadcrumbs_feature_div",
		".a-breadcrumb",
	}
	availSelectors = []string{
		"#availability span",
		"#availability",
	}
)

var imgSizeRe = regexp.MustCompile(`\._[A-Z]{2}\d+_\.`)

const maxImages = 12

type Scraper struct{}

func New() *Scraper { return &Scraper{} }

func (s *Scraper) Marketplace() domain.Marketplace { return domain.MarketplaceAmazon }

// Parse extracts a ProductRecord from an Amazon product page. Title,
// positive price, ASIN and at least one image are required; brand,
// description and category are best-effort.
func (s *Scraper) Parse(rawPage, sourceURL string) (domain.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "amazon", Msg: err.Error()}
	}

	asin := ExtractASIN(sourceURL)
	if asin == "" {
		asin = strings.TrimSpace(doc.Find(`input#ASIN`).AttrOr("value", ""))
	}
	if asin == "" {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "amazon", Field: "asin", Msg: "no ASIN in URL or page"}
	}

	title := firstText(doc, titleSelectors)
	if title == "" {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "amazon", Field: "title", Msg: "missing"}
	}

	price, perr := extractPrice(doc)
	if perr != nil {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "amazon", Field: "price", Msg: perr.Error()}
	}

	images := extractImages(doc)
	if len(images) == 0 {
		return domain.ProductRecord{}, &util.ParseError{Marketplace: "amazon", Field: "images", Msg: "no product images"}
	}

	return domain.ProductRecord{
		Title:           title,
		Price:           price,
		Currency:        "USD",
		Brand:           extractBrand(doc),
		ImageURLs:       images,
		Description:     extractDescription(doc),
		Category:        extractCategory(doc),
		Availability:    firstText(doc, availSelectors),
		SourceMarket:    domain.MarketplaceAmazon,
		SourceURL:       sourceURL,
		SourceProductID: asin,
		ScrapedAt:       time.Now().UTC(),
	}, nil
}

// ExtractASIN pulls the 10-character product id out of an Amazon URL.
func ExtractASIN(raw string) string {
	if m := asinRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, part := range strings.Split(u.Path, "/") {
		if bareASINRe.MatchString(part) {
			return part
		}
	}
	return ""
}

// CanonicalURL reduces an Amazon product URL to https://host/dp/ASIN.
func CanonicalURL(raw string) string {
	asin := ExtractASIN(raw)
	if asin == "" {
		return util.Canonicalize(raw)
	}
	host := "www.amazon.com"
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	return fmt.Sprintf("https://%s/dp/%s", host, asin)
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func extractPrice(doc *goquery.Document) (float64, error) {
	var lastErr error = fmt.Errorf("missing")
	for _, sel := range priceSelectors {
		var found float64
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, err := util.ParsePrice(s.Text())
			if err != nil {
				lastErr = err
				return true
			}
			found = v
			return false
		})
		if found > 0 {
			return found, nil
		}
	}
	return 0, lastErr
}

func extractBrand(doc *goquery.Document) string {
	for _, sel := range brandSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		for _, prefix := range []string{"Visit the ", "Brand: ", "by "} {
			text = strings.TrimPrefix(text, prefix)
		}
		text = strings.TrimSuffix(text, " Store")
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

func extractImages(doc *goquery.Document) []string {
	var images []string
	seen := map[string]bool{}

	add := func(raw string) {
		clean := toHighRes(raw)
		if clean == "" || seen[clean] || len(images) >= maxImages {
			return
		}
		seen[clean] = true
		images = append(images, clean)
	}

	for _, sel := range imageSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			// data-a-dynamic-image holds a JSON object keyed by URL
			if dyn, ok := s.Attr("data-a-dynamic-image"); ok && strings.HasPrefix(dyn, "{") {
				var byURL map[string][]float64
				if json.Unmarshal([]byte(dyn), &byURL) == nil {
					for u := range byURL {
						add(u)
					}
				}
			}
			src := s.AttrOr("data-old-hires", "")
			if src == "" {
				src = s.AttrOr("src", "")
			}
			if src == "" || strings.Contains(src, "1x1") || strings.Contains(src, "pixel") {
				return
			}
			add(src)
		})
	}
	return images
}

// toHighRes rewrites Amazon's size-parameterized image URLs to the
// full-resolution variant.
func toHighRes(raw string) string {
	if !strings.HasPrefix(raw, "http") {
		return ""
	}
	return imgSizeRe.ReplaceAllString(raw, "._SL1500_.")
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range descSelectors {
		block := doc.Find(sel).First()
		if block.Length() == 0 {
			continue
		}
		var points []string
		block.Find("li span.a-list-item").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				points = append(points, t)
			}
		})
		if len(points) > 0 {
			return strings.Join(points, " | ")
		}
		if t := strings.TrimSpace(block.Text()); len(t) > 10 {
			return t
		}
	}
	return ""
}

func extractCategory(doc *goquery.Document) string {
	for _, sel := range categorySelectors {
		var crumbs []string
		doc.Find(sel).First().Find("a").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				crumbs = append(crumbs, t)
			}
		})
		if len(crumbs) > 0 {
			return strings.Join(crumbs, " > ")
		}
	}
	return ""
}
