package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`[\d,]+\.?\d*`)

// ParsePrice normalizes marketplace price text ("$1,299.99", "USD 24.99",
// "$10.99 - $14.99") to a plain decimal. Ranges resolve to the first
// (lowest) value. Zero, negative, or non-numeric text is an error.
func ParsePrice(text string) (float64, error) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no numeric price in %q", text)
	}
	m = strings.ReplaceAll(m, ",", "")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", text, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive price %v", v)
	}
	return v, nil
}
