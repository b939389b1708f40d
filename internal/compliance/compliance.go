// engine/internal/compliance/compliance.go
package compliance

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"relist-engine/internal/config"
	"relist-engine/internal/domain"
)

// fuzzyThreshold is the minimum similarity ratio for treating a brand
// as a near match of a blocked one.
const fuzzyThreshold = 0.85

// Checker screens products against the rights-owner brand list and
// restricted keyword patterns before any listing work happens.
type Checker struct {
	blocked      []string // original casing, for messages
	blockedLower map[string]struct{}
	blockedToken []*regexp.Regexp // word-boundary matchers, same order as blocked
	advisory     map[string]struct{}
	keywords     []string
}

func New(cfg config.Config) *Checker {
	c := &Checker{
		blockedLower: make(map[string]struct{}, len(cfg.Compliance.BlockedBrands)),
		advisory:     make(map[string]struct{}, len(cfg.Compliance.AdvisoryBrands)),
	}
	for _, b := range cfg.Compliance.BlockedBrands {
		c.blocked = append(c.blocked, b)
		c.blockedLower[strings.ToLower(b)] = struct{}{}
		c.blockedToken = append(c.blockedToken,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(b)+`\b`))
	}
	for _, b := range cfg.Compliance.AdvisoryBrands {
		c.advisory[strings.ToLower(b)] = struct{}{}
	}
	for _, k := range cfg.Compliance.RestrictedKeywords {
		c.keywords = append(c.keywords, strings.ToLower(k))
	}
	log.Printf("[compliance] ruleset: %d blocked brands, %d advisory, %d keywords",
		len(c.blocked), len(c.advisory), len(c.keywords))
	return c
}

// BrandCount is the number of blocked brands loaded.
func (c *Checker) BrandCount() int { return len(c.blocked) }

// CheckBrand screens a single brand name. An exact blocked match is
// terminal; a near match or advisory brand is a warning; an empty
// brand is a warning because it cannot be screened at all.
func (c *Checker) CheckBrand(brand string) domain.ComplianceVerdict {
	clean := strings.TrimSpace(brand)
	if clean == "" {
		return domain.ComplianceVerdict{
			IsCompliant: true,
			Brand:       brand,
			RiskLevel:   domain.RiskWarning,
			Violations:  []string{"No brand specified, manual review recommended"},
		}
	}
	lower := strings.ToLower(clean)

	if _, ok := c.blockedLower[lower]; ok {
		return domain.ComplianceVerdict{
			IsCompliant: false,
			Brand:       clean,
			RiskLevel:   domain.RiskBlocked,
			Violations: []string{
				fmt.Sprintf("Brand %q is on the protected brands list", clean),
			},
		}
	}

	if match := c.fuzzyMatch(lower); match != "" {
		return domain.ComplianceVerdict{
			IsCompliant: true,
			Brand:       clean,
			RiskLevel:   domain.RiskWarning,
			Violations: []string{
				fmt.Sprintf("Brand %q closely matches protected brand %q, listing may be flagged", clean, match),
			},
		}
	}

	if _, ok := c.advisory[lower]; ok {
		return domain.ComplianceVerdict{
			IsCompliant: true,
			Brand:       clean,
			RiskLevel:   domain.RiskWarning,
			Violations: []string{
				fmt.Sprintf("Brand %q requires authenticity documentation for resale", clean),
			},
		}
	}

	return domain.ComplianceVerdict{
		IsCompliant: true,
		Brand:       clean,
		RiskLevel:   domain.RiskClear,
	}
}

// CheckProduct runs the full screen: brand, blocked-brand tokens in
// the listing text, and restricted keywords in title and description.
// Violations accumulate; the verdict carries the highest risk level
// found.
func (c *Checker) CheckProduct(p *domain.ProductRecord) domain.ComplianceVerdict {
	verdict := c.CheckBrand(p.Brand)
	verdict.Brand = p.Brand

	// A protected brand named anywhere in the listing text blocks,
	// even when the brand field says something else. "Rolex style"
	// listings are exactly what rights owners flag.
	if hits := c.blockedInText(p.Title + " " + p.Description); len(hits) > 0 {
		verdict.Violations = append(verdict.Violations, hits...)
		verdict.RiskLevel = domain.RiskBlocked
	}

	if kw := c.keywordViolations(p.Title, p.Description); len(kw) > 0 {
		verdict.Violations = append(verdict.Violations, kw...)
		if verdict.RiskLevel == domain.RiskClear {
			verdict.RiskLevel = domain.RiskWarning
		}
	}

	verdict.IsCompliant = verdict.RiskLevel != domain.RiskBlocked
	if !verdict.IsCompliant {
		log.Printf("[compliance] blocked: brand=%q url=%s", p.Brand, p.SourceURL)
	}
	return verdict
}

// blockedInText reports every blocked brand whose name appears as a
// whole token in the given text.
func (c *Checker) blockedInText(text string) []string {
	var out []string
	for i, re := range c.blockedToken {
		if re.MatchString(text) {
			out = append(out, fmt.Sprintf("Protected brand %q referenced in product text", c.blocked[i]))
		}
	}
	return out
}

func (c *Checker) keywordViolations(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	var out []string
	for _, kw := range c.keywords {
		if strings.Contains(text, kw) {
			out = append(out, fmt.Sprintf("Restricted keyword %q found in product text", kw))
		}
	}
	return out
}

// fuzzyMatch returns the blocked brand closest to lower, if its
// similarity clears the threshold. Only meaningful for near
// misspellings; exact matches are handled before this runs.
func (c *Checker) fuzzyMatch(lower string) string {
	best := ""
	bestRatio := 0.0
	for _, b := range c.blocked {
		r := similarity(lower, strings.ToLower(b))
		if r >= fuzzyThreshold && r > bestRatio {
			bestRatio = r
			best = b
		}
	}
	return best
}

// similarity is a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	dist := prev[lb]
	longer := max(la, lb)
	return 1 - float64(dist)/float64(longer)
}
