// engine/internal/convert/title.go
package convert

import (
	"regexp"
	"strings"
)

// maxTitleLen is the listing title limit on the target marketplace.
const maxTitleLen = 80

// Marketplace junk that never belongs in a resale title.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:Amazon'?s?\s+Choice|Best\s+Seller|#1\s+Best\s+Seller)\b`),
	regexp.MustCompile(`(?i)\bAmazon\s+Exclusive\b`),
	regexp.MustCompile(`(?i)\b(?:Limited\s+Time\s+(?:Offer|Deal)|Free\s+Shipping)\b`),
	regexp.MustCompile(`(?i)\b(?:Buy\s+\d+\s+Get\s+\d+|Save\s+\d+%)\b`),
	regexp.MustCompile(`(?i)\bAs\s+Seen\s+On\s+TV\b`),
	regexp.MustCompile(`(?i)\b(?:Great|Perfect|Ideal)\s+(?:Gift|Present)\s*(?:for\s+\w+)?\b`),
	regexp.MustCompile(`(?i)\bGift\s+(?:Box|Set|Idea|Package)\b`),
	regexp.MustCompile(`\s*\([A-Z0-9]{5,}\)\s*$`), // trailing model number
	regexp.MustCompile(`(?i)\bby\s+\w+\s*$`),
	regexp.MustCompile(`[™®©]+`),
	regexp.MustCompile(`(?i)\[(?:Updated|Latest|New)\s*\d*\s*(?:Version|Model|Edition)?\]`),
	regexp.MustCompile(`(?i)\[(?:Gift\s+Ready|Holiday\s+Special|Limited\s+Edition)\]`),
}

// Space-saving rewrites applied only when the title is over the limit.
// Ordered from most savings to least.
var abbreviations = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bStainless\s+Steel\b`), "SS"},
	{regexp.MustCompile(`(?i)\bCarbon\s+Fiber\b`), "CF"},
	{regexp.MustCompile(`(?i)\bBluetooth\b`), "BT"},
	{regexp.MustCompile(`(?i)\bWi-?Fi\b`), "WiFi"},
	{regexp.MustCompile(`(?i)\bPack\s+of\s+(\d+)\b`), "$1-Pack"},
	{regexp.MustCompile(`(?i)\b(\d+)\s*(?:Piece|Pcs)\b`), "${1}pc"},
	{regexp.MustCompile(`(?i)\b(\d+)\s*(?:Count|Ct)\b`), "${1}ct"},
	{regexp.MustCompile(`(?i)\b(\d+)\s*Inch(?:es)?\b`), `$1"`},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*Ounce(?:s)?\b`), "${1}oz"},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*Pound(?:s)?\b`), "${1}lb"},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*Millimeter(?:s)?\b`), "${1}mm"},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*Centimeter(?:s)?\b`), "${1}cm"},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*Milliliter(?:s)?\b`), "${1}ml"},
	{regexp.MustCompile(`(?i)\bGeneration\b`), "Gen"},
	{regexp.MustCompile(`(?i)\bProfessional\b`), "Pro"},
	{regexp.MustCompile(`(?i)\bAutomatic\b`), "Auto"},
	{regexp.MustCompile(`(?i)\bRechargeable\b`), "Rchg"},
	{regexp.MustCompile(`(?i)\bWaterproof\b`), "WP"},
	{regexp.MustCompile(`(?i)\bTemperature\b`), "Temp"},
	{regexp.MustCompile(`(?i)\bAdjustable\b`), "Adj"},
	{regexp.MustCompile(`(?i)\bReplacement\b`), "Repl"},
	{regexp.MustCompile(`(?i)\bUniversal\b`), "Univ"},
}

// Low-value words dropped when the title is still over the limit.
// "for" and "with" survive because buyers search with them.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "of": true,
	"by": true, "from": true, "that": true, "this": true,
	"is": true, "are": true, "was": true, "were": true,
	"it": true, "its": true, "your": true, "our": true,
	"very": true, "most": true, "more": true, "also": true,
	"just": true, "only": true, "even": true, "into": true,
}

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	trailJunkRe = regexp.MustCompile(`[,\-|\s]+$`)
	leadJunkRe  = regexp.MustCompile(`^\s*[|\-]\s*`)
)

// OptimizeTitle rewrites a source marketplace title into a resale
// title within the 80 character limit. Steps escalate only while the
// title is still too long, so a short clean title passes through with
// just noise stripping. The result never splits a word.
func OptimizeTitle(title, brand string) string {
	t := cleanTitle(title)
	t = stripNoise(t)
	t = frontLoadBrand(t, brand)
	if len(t) <= maxTitleLen {
		return t
	}
	t = applyAbbreviations(t)
	if len(t) <= maxTitleLen {
		return t
	}
	t = dedupeWords(t)
	if len(t) <= maxTitleLen {
		return t
	}
	t = dropFillers(t)
	if len(t) <= maxTitleLen {
		return t
	}
	return truncateAtWord(t, maxTitleLen)
}

func cleanTitle(t string) string {
	t = leadJunkRe.ReplaceAllString(t, "")
	t = trailJunkRe.ReplaceAllString(t, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

func stripNoise(t string) string {
	for _, re := range noisePatterns {
		t = re.ReplaceAllString(t, "")
	}
	t = spaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(trailJunkRe.ReplaceAllString(t, ""))
}

// frontLoadBrand puts the brand first when the title buries it.
func frontLoadBrand(t, brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" || t == "" {
		return t
	}
	lt, lb := strings.ToLower(t), strings.ToLower(brand)
	if strings.HasPrefix(lt, lb) {
		return t
	}
	if !strings.Contains(lt, lb) {
		return t
	}
	idx := strings.Index(lt, lb)
	rest := strings.TrimSpace(t[:idx] + t[idx+len(brand):])
	rest = strings.TrimSpace(spaceRe.ReplaceAllString(rest, " "))
	return strings.TrimSpace(brand + " " + rest)
}

func applyAbbreviations(t string) string {
	for _, a := range abbreviations {
		t = a.re.ReplaceAllString(t, a.repl)
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

// dedupeWords drops repeated words, keeping the first occurrence.
// Two-letter words are exempt so sizes like "XL XL" pairs survive.
func dedupeWords(t string) string {
	words := strings.Fields(t)
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		key := strings.ToLower(strings.Trim(w, ",.;:-"))
		if seen[key] && len(key) > 2 {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// dropFillers removes stop words. The first word always survives
// because it is usually the brand.
func dropFillers(t string) string {
	words := strings.Fields(t)
	if len(words) == 0 {
		return ""
	}
	out := []string{words[0]}
	for _, w := range words[1:] {
		if fillerWords[strings.ToLower(w)] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func truncateAtWord(t string, limit int) string {
	if len(t) <= limit {
		return t
	}
	cut := t[:limit]
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.-")
}
