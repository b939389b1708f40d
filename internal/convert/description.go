// engine/internal/convert/description.go
package convert

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"relist-engine/internal/domain"
)

// Template picks one of the fixed description layouts. The choice is
// configuration, never data driven.
type Template string

const (
	TemplateModern  Template = "modern"
	TemplateClassic Template = "classic"
	TemplateMinimal Template = "minimal"
)

// Palette shared by every template. All CSS is inline because the
// target marketplace strips style tags.
const (
	colorPrimary   = "#2563EB"
	colorBorder    = "#E2E8F0"
	colorText      = "#1E293B"
	colorSecondary = "#64748B"
	colorBgAlt     = "#F8FAFC"
)

// BuildDescription renders product data into an HTML listing body
// using the given template. Unknown template names fall back to
// modern so a bad config value still produces a listing.
func BuildDescription(p *domain.ProductRecord, tpl Template) string {
	switch tpl {
	case TemplateClassic:
		return buildClassic(p)
	case TemplateMinimal:
		return buildMinimal(p)
	default:
		return buildModern(p)
	}
}

func buildModern(p *domain.ProductRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div style="background:%s;color:#FFF;padding:16px 24px;border-radius:8px 8px 0 0;"><h2 style="margin:0;font-size:20px;font-weight:700;">%s</h2></div>`,
		colorPrimary, esc(p.Title))

	var hero strings.Builder
	if len(p.ImageURLs) > 0 {
		fmt.Fprintf(&hero, `<div style="flex:0 0 280px;text-align:center;"><img src="%s" alt="%s" style="max-width:280px;max-height:280px;border-radius:6px;object-fit:contain;" /></div>`,
			esc(p.ImageURLs[0]), esc(p.Title))
	}
	if d := descriptionBlock(p.Description); d != "" {
		fmt.Fprintf(&hero, `<div style="flex:1;min-width:200px;">%s</div>`, d)
	}
	if hero.Len() > 0 {
		fmt.Fprintf(&b, `<div style="display:flex;gap:24px;padding:20px;flex-wrap:wrap;align-items:flex-start;">%s</div>`, hero.String())
	}

	if rows := specRows(p, `<tr><td style="padding:10px 14px;font-weight:600;background:%s;border-bottom:1px solid %s;width:35%%;">%s</td><td style="padding:10px 14px;border-bottom:1px solid %s;">%s</td></tr>`); rows != "" {
		fmt.Fprintf(&b, `<table style="width:100%%;border-collapse:collapse;margin:0 0 16px 0;border:1px solid %s;"><thead><tr><th colspan="2" style="background:%s;color:#FFF;padding:10px 14px;text-align:left;font-size:14px;">Product Details</th></tr></thead><tbody>%s</tbody></table>`,
			colorBorder, colorPrimary, rows)
	}

	if g := gallery(p.ImageURLs, 120); g != "" {
		fmt.Fprintf(&b, `<div style="padding:0 20px 16px 20px;"><p style="font-weight:600;margin:0 0 10px 0;font-size:14px;">More Images</p><div style="display:flex;gap:10px;flex-wrap:wrap;">%s</div></div>`, g)
	}

	b.WriteString(footer())

	return fmt.Sprintf(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:800px;margin:0 auto;background:#FFF;border:1px solid %s;border-radius:8px;overflow:hidden;color:%s;">%s</div>`,
		colorBorder, colorText, b.String())
}

func buildClassic(p *domain.ProductRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<h2 style="color:%s;font-size:22px;margin:0 0 10px 0;padding-bottom:10px;border-bottom:2px solid %s;">%s</h2>`,
		colorPrimary, colorPrimary, esc(p.Title))

	if len(p.ImageURLs) > 0 {
		fmt.Fprintf(&b, `<div style="text-align:center;margin:16px 0;"><img src="%s" alt="%s" style="max-width:400px;max-height:400px;object-fit:contain;" /></div>`,
			esc(p.ImageURLs[0]), esc(p.Title))
	}

	if d := descriptionBlock(p.Description); d != "" {
		fmt.Fprintf(&b, `<h3 style="font-size:16px;margin:16px 0 8px 0;">Description</h3>%s`, d)
	}

	if rows := specRows(p, `<tr><td style="padding:8px 12px;font-weight:bold;background:%s;border:1px solid %s;width:35%%;">%s</td><td style="padding:8px 12px;border:1px solid %s;">%s</td></tr>`); rows != "" {
		fmt.Fprintf(&b, `<hr style="border:0;border-top:1px solid %s;margin:16px 0;" /><h3 style="font-size:16px;margin:0 0 10px 0;">Product Details</h3><table style="width:100%%;border-collapse:collapse;margin-bottom:16px;">%s</table>`,
			colorBorder, rows)
	}

	if g := gallery(p.ImageURLs, 140); g != "" {
		fmt.Fprintf(&b, `<h3 style="font-size:16px;margin:0 0 10px 0;">Additional Images</h3><div style="display:flex;gap:8px;flex-wrap:wrap;">%s</div>`, g)
	}

	b.WriteString(footer())

	return fmt.Sprintf(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:800px;margin:0 auto;padding:24px;background:#FFF;color:%s;">%s</div>`,
		colorText, b.String())
}

func buildMinimal(p *domain.ProductRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<h2 style="font-size:18px;margin:0 0 12px 0;">%s</h2>`, esc(p.Title))

	if d := descriptionBlock(p.Description); d != "" {
		b.WriteString(d)
	}

	if specs := specPairs(p); len(specs) > 0 {
		items := make([]string, 0, len(specs))
		for _, s := range specs {
			items = append(items, fmt.Sprintf("<strong>%s:</strong> %s", esc(s[0]), esc(s[1])))
		}
		fmt.Fprintf(&b, `<p style="color:%s;font-size:13px;line-height:1.6;margin:0 0 12px 0;">%s</p>`,
			colorSecondary, strings.Join(items, " &bull; "))
	}

	if len(p.ImageURLs) > 0 {
		fmt.Fprintf(&b, `<div style="text-align:center;margin:12px 0;"><img src="%s" alt="%s" style="max-width:300px;max-height:300px;object-fit:contain;" /></div>`,
			esc(p.ImageURLs[0]), esc(p.Title))
	}

	return fmt.Sprintf(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:600px;margin:0 auto;padding:16px;color:%s;">%s</div>`,
		colorText, b.String())
}

var (
	bulletRe   = regexp.MustCompile(`(?m)^\s*[•\-\*►✓✔|]\s*(.+)$`)
	numberedRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+)$`)
	sentenceRe = regexp.MustCompile(`(?:[.!])\s+`)
)

// extractFeatures pulls bullet points out of free-form description
// text. Falls back to sentence splitting when the text has three or
// more sentences, capped at eight bullets. Returns nil when a plain
// paragraph reads better.
func extractFeatures(description string) []string {
	if description == "" {
		return nil
	}
	// Scrapers join list items with " | ".
	if strings.Contains(description, " | ") {
		parts := strings.Split(description, " | ")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) >= 2 {
			return capFeatures(out)
		}
	}
	if m := bulletRe.FindAllStringSubmatch(description, -1); len(m) > 0 {
		return capFeatures(submatches(m))
	}
	if m := numberedRe.FindAllStringSubmatch(description, -1); len(m) >= 2 {
		return capFeatures(submatches(m))
	}
	sentences := sentenceRe.Split(description, -1)
	var out []string
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) >= 3 {
		return capFeatures(out)
	}
	return nil
}

func submatches(m [][]string) []string {
	out := make([]string, 0, len(m))
	for _, g := range m {
		if s := strings.TrimSpace(g[1]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func capFeatures(f []string) []string {
	if len(f) > 8 {
		return f[:8]
	}
	return f
}

func descriptionBlock(description string) string {
	if description == "" {
		return ""
	}
	if features := extractFeatures(description); len(features) > 0 {
		var b strings.Builder
		for _, f := range features {
			fmt.Fprintf(&b, `<li style="margin-bottom:6px;line-height:1.5;">%s</li>`, esc(f))
		}
		return fmt.Sprintf(`<ul style="padding-left:20px;margin:0 0 12px 0;">%s</ul>`, b.String())
	}
	return fmt.Sprintf(`<p style="line-height:1.6;margin:0 0 12px 0;">%s</p>`, esc(description))
}

func specPairs(p *domain.ProductRecord) [][2]string {
	var specs [][2]string
	if p.Brand != "" {
		specs = append(specs, [2]string{"Brand", p.Brand})
	}
	if p.Category != "" {
		specs = append(specs, [2]string{"Category", p.Category})
	}
	if p.Availability != "" {
		specs = append(specs, [2]string{"Availability", p.Availability})
	}
	if p.SourceMarket != "" {
		specs = append(specs, [2]string{"Source", capitalize(string(p.SourceMarket))})
	}
	return specs
}

func specRows(p *domain.ProductRecord, rowFmt string) string {
	specs := specPairs(p)
	if len(specs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&b, rowFmt, colorBgAlt, colorBorder, esc(s[0]), colorBorder, esc(s[1]))
	}
	return b.String()
}

// gallery renders up to four secondary images as thumbnails.
func gallery(images []string, size int) string {
	if len(images) < 2 {
		return ""
	}
	extra := images[1:]
	if len(extra) > 4 {
		extra = extra[:4]
	}
	var b strings.Builder
	for _, img := range extra {
		fmt.Fprintf(&b, `<img src="%s" alt="Product image" style="width:%dpx;height:%dpx;object-fit:contain;border:1px solid %s;border-radius:4px;background:#FFF;" />`,
			esc(img), size, size, colorBorder)
	}
	return b.String()
}

func footer() string {
	return fmt.Sprintf(`<div style="text-align:center;padding:12px;border-top:1px solid %s;margin-top:8px;"><p style="margin:0;font-size:11px;color:%s;">Listed with Relist</p></div>`,
		colorBorder, colorSecondary)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func esc(s string) string { return html.EscapeString(s) }
