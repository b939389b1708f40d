package compliance

import (
	"strings"
	"testing"

	"relist-engine/internal/config"
	"relist-engine/internal/domain"
)

func testChecker() *Checker {
	var cfg config.Config
	cfg.Compliance.BlockedBrands = []string{"Nike", "Louis Vuitton", "Rolex"}
	cfg.Compliance.AdvisoryBrands = []string{"Apple", "Sony"}
	cfg.Compliance.RestrictedKeywords = []string{"replica", "counterfeit", "inspired by", "bootleg"}
	return New(cfg)
}

func TestCheckBrandExactBlocked(t *testing.T) {
	c := testChecker()
	v := c.CheckBrand("nike")
	if v.IsCompliant {
		t.Fatal("blocked brand reported compliant")
	}
	if v.RiskLevel != domain.RiskBlocked {
		t.Fatalf("risk = %s, want blocked", v.RiskLevel)
	}
	if len(v.Violations) != 1 {
		t.Fatalf("violations = %v", v.Violations)
	}
}

func TestCheckBrandFuzzyMatchWarns(t *testing.T) {
	c := testChecker()
	v := c.CheckBrand("Nkie")
	if !v.IsCompliant {
		t.Fatal("fuzzy match should not block")
	}
	if v.RiskLevel != domain.RiskWarning {
		t.Fatalf("risk = %s, want warning", v.RiskLevel)
	}
	if len(v.Violations) == 0 || !strings.Contains(v.Violations[0], "Nike") {
		t.Fatalf("violation should name the matched brand: %v", v.Violations)
	}
}

func TestCheckBrandAdvisoryWarns(t *testing.T) {
	c := testChecker()
	v := c.CheckBrand("Apple")
	if !v.IsCompliant || v.RiskLevel != domain.RiskWarning {
		t.Fatalf("advisory verdict = %+v", v)
	}
}

func TestCheckBrandEmptyWarns(t *testing.T) {
	c := testChecker()
	v := c.CheckBrand("  ")
	if !v.IsCompliant || v.RiskLevel != domain.RiskWarning || len(v.Violations) != 1 {
		t.Fatalf("empty brand verdict = %+v", v)
	}
}

func TestCheckBrandClear(t *testing.T) {
	c := testChecker()
	v := c.CheckBrand("Ozark Trail")
	if !v.IsCompliant || v.RiskLevel != domain.RiskClear || len(v.Violations) != 0 {
		t.Fatalf("clear verdict = %+v", v)
	}
}

func TestCheckProductAccumulatesViolations(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{
		Brand:       "Apple",
		Title:       "Inspired By AirPods Pro replica case",
		Description: "bootleg edition",
	}
	v := c.CheckProduct(p)
	if !v.IsCompliant {
		t.Fatal("warnings should not block")
	}
	if v.RiskLevel != domain.RiskWarning {
		t.Fatalf("risk = %s, want warning", v.RiskLevel)
	}
	// advisory brand + 3 keywords
	if len(v.Violations) != 4 {
		t.Fatalf("violations = %d: %v", len(v.Violations), v.Violations)
	}
}

func TestCheckProductBlockedOutranksKeywords(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{
		Brand: "Rolex",
		Title: "Rolex replica watch",
	}
	v := c.CheckProduct(p)
	if v.IsCompliant {
		t.Fatal("blocked brand must fail compliance")
	}
	if v.RiskLevel != domain.RiskBlocked {
		t.Fatalf("risk = %s, want blocked", v.RiskLevel)
	}
	// brand field + brand token in title + keyword
	if len(v.Violations) != 3 {
		t.Fatalf("expected brand, text, and keyword violations, got %v", v.Violations)
	}
}

func TestCheckProductBlockedBrandInTitleBlocks(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{
		Brand: "Generic",
		Title: "Rolex Submariner style luxury dive watch",
	}
	v := c.CheckProduct(p)
	if v.IsCompliant {
		t.Fatal("blocked brand in title must fail compliance")
	}
	if v.RiskLevel != domain.RiskBlocked {
		t.Fatalf("risk = %s, want blocked", v.RiskLevel)
	}
	if len(v.Violations) == 0 || !strings.Contains(v.Violations[0], "Rolex") {
		t.Fatalf("violation should name the brand: %v", v.Violations)
	}
}

func TestCheckProductBrandTokenNeedsWordBoundary(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{
		Brand: "Ozark Trail",
		Title: "Snikers candy organizer", // contains "nike" but not as a token
	}
	v := c.CheckProduct(p)
	if v.RiskLevel == domain.RiskBlocked {
		t.Fatalf("substring inside a word must not block: %+v", v)
	}
}

func TestCheckProductBlockedBrandInDescriptionBlocks(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{
		Brand:       "Generic",
		Title:       "Leather handbag",
		Description: "Looks just like a LOUIS VUITTON tote.",
	}
	v := c.CheckProduct(p)
	if v.RiskLevel != domain.RiskBlocked {
		t.Fatalf("risk = %s, want blocked", v.RiskLevel)
	}
}

func TestCheckProductKeywordsCaseInsensitive(t *testing.T) {
	c := testChecker()
	p := &domain.ProductRecord{Brand: "Ozark Trail", Title: "COUNTERFEIT-proof wallet"}
	v := c.CheckProduct(p)
	if v.RiskLevel != domain.RiskWarning {
		t.Fatalf("risk = %s, want warning", v.RiskLevel)
	}
}
