package extract

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		none bool
	}{
		{name: "plain", text: "129.99", want: 129.99},
		{name: "dollar sign", text: "$1,299.00", want: 1299},
		{name: "pound sign", text: "£54.10", want: 54.1},
		{name: "euro suffix", text: "219,99 €", want: 21999, none: false},
		{name: "us prefix", text: "US $34.95", want: 34.95},
		{name: "embedded text", text: "Now only 49.50 with coupon", want: 49.5},
		{name: "integer", text: "300", want: 300},
		{name: "empty", text: "", none: true},
		{name: "no digits", text: "Call for price", none: true},
		{name: "zero placeholder", text: "$0.00", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.text)
			if tt.none {
				if got != nil {
					t.Fatalf("ParsePrice(%q) = %v, want nil", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParsePrice(%q) = nil, want %v", tt.text, tt.want)
			}
			if *got != tt.want {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.text, *got, tt.want)
			}
		})
	}
}

func TestResolveImageURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		host string
		want string
	}{
		{name: "absolute", raw: "https://i.ebayimg.com/images/g/abc/s-l1600.jpg", host: "www.ebay.com", want: "https://i.ebayimg.com/images/g/abc/s-l1600.jpg"},
		{name: "protocol relative", raw: "//c1.neweggimages.com/p/1.jpg", host: "www.newegg.com", want: "https://c1.neweggimages.com/p/1.jpg"},
		{name: "root relative", raw: "/images/p/1.jpg", host: "www.newegg.com", want: "https://www.newegg.com/images/p/1.jpg"},
		{name: "empty", raw: "", host: "www.newegg.com", want: ""},
		{name: "garbage", raw: "not a url", host: "www.newegg.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveImageURL(tt.raw, tt.host); got != tt.want {
				t.Fatalf("resolveImageURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCurrencyFromText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"US $34.95", "USD"},
		{"$34.95", "USD"},
		{"£54.10", "GBP"},
		{"EUR 219,99", "EUR"},
		{"34.95", ""},
	}
	for _, tt := range tests {
		if got := currencyFromText(tt.text); got != tt.want {
			t.Fatalf("currencyFromText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
