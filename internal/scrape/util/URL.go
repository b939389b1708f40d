package util

import (
	"net/url"
	"sort"
	"strings"
)

// Canonicalize trims tracking noise from a product URL so equal
// products hash to equal cache keys: lowercase scheme/host, no
// fragment, marketing params dropped, remaining query sorted.
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			strings.HasPrefix(lk, "pd_rd_") ||
			strings.HasPrefix(lk, "pf_rd_") ||
			lk == "ref" || lk == "ref_" || lk == "tag" ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "athbdg" || lk == "content-id" || lk == "psc" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()

	// /ref=... path suffixes are tracking, not routing
	if i := strings.Index(u.Path, "/ref="); i >= 0 {
		u.Path = u.Path[:i]
	}

	return u.String()
}
