package util

import "fmt"

// ParseError means the page structure did not yield a usable product.
// Not retried: the same page will parse the same way next time.
type ParseError struct {
	Marketplace string
	Field       string
	Msg         string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s parse: %s: %s", e.Marketplace, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s parse: %s", e.Marketplace, e.Msg)
}
