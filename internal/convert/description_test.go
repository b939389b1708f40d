package convert

import (
	"strings"
	"testing"
)

func TestBuildDescriptionTemplatesDiffer(t *testing.T) {
	p := sampleProduct()
	modern := BuildDescription(p, TemplateModern)
	classic := BuildDescription(p, TemplateClassic)
	minimal := BuildDescription(p, TemplateMinimal)

	if modern == classic || classic == minimal || modern == minimal {
		t.Fatal("templates should render distinct layouts")
	}
	for name, html := range map[string]string{"modern": modern, "classic": classic, "minimal": minimal} {
		if !strings.Contains(html, "Ozark Trail 24oz Insulated Water Bottle") {
			t.Errorf("%s: missing title", name)
		}
		if strings.Contains(html, "<style") {
			t.Errorf("%s: style tags are stripped by the marketplace", name)
		}
	}
}

func TestBuildDescriptionUnknownTemplateFallsBack(t *testing.T) {
	p := sampleProduct()
	if BuildDescription(p, Template("bogus")) != BuildDescription(p, TemplateModern) {
		t.Fatal("unknown template should render modern")
	}
}

func TestBuildDescriptionEscapesHTML(t *testing.T) {
	p := sampleProduct()
	p.Title = `Widget <script>alert("x")</script>`
	p.Description = ""
	html := BuildDescription(p, TemplateMinimal)
	if strings.Contains(html, "<script>") {
		t.Fatal("title not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatal("expected escaped title in output")
	}
}

func TestExtractFeaturesPipeSeparated(t *testing.T) {
	got := extractFeatures("Keeps drinks cold | Double wall insulation | BPA free")
	if len(got) != 3 || got[1] != "Double wall insulation" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractFeaturesBullets(t *testing.T) {
	got := extractFeatures("• Fast charging\n• Compact design\n• 18 month warranty")
	if len(got) != 3 || got[0] != "Fast charging" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractFeaturesShortParagraphStaysParagraph(t *testing.T) {
	if got := extractFeatures("A simple widget. Works well."); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestExtractFeaturesCapsAtEight(t *testing.T) {
	parts := make([]string, 12)
	for i := range parts {
		parts[i] = "Feature number " + string(rune('a'+i))
	}
	got := extractFeatures(strings.Join(parts, " | "))
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
}

func TestBuildDescriptionNoImages(t *testing.T) {
	p := sampleProduct()
	p.ImageURLs = nil
	html := BuildDescription(p, TemplateModern)
	if strings.Contains(html, "<img") {
		t.Fatal("image tags without images")
	}
}
