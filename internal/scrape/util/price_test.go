package util

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$21.99", 21.99},
		{"$1,299.00", 1299.00},
		{"USD 24.99", 24.99},
		{"$10.99 - $14.99", 10.99},
		{"7", 7},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in)
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParsePriceRejectsJunk(t *testing.T) {
	for _, in := range []string{"", "free", "$0.00", "see price in cart"} {
		if _, err := ParsePrice(in); err == nil {
			t.Errorf("ParsePrice(%q) should fail", in)
		}
	}
}

func TestCanonicalizeStripsTracking(t *testing.T) {
	in := "https://www.Walmart.com/ip/Bottle/577989907?athbdg=L1600&utm_source=x&sid=9#reviews"
	got := Canonicalize(in)
	want := "https://www.walmart.com/ip/Bottle/577989907?sid=9"
	if got != want {
		t.Fatalf("Canonicalize = %q, want %q", got, want)
	}
}
