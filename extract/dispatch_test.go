package extract

import "testing"

func TestForURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com/dp/B0ABC123", "amazon"},
		{"https://www.amazon.co.uk/dp/B0ABC123", "amazon"},
		{"https://www.ebay.com/itm/366042770374", "ebay"},
		{"https://www.ebay.co.uk/itm/366042770374", "ebay"},
		{"https://www.newegg.com/p/N82E16819113664", "newegg"},
		{"https://shop.example/widget", "generic"},
		{"not even a url", "generic"},
		{"", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ForURL(tt.url).Name(); got != tt.want {
				t.Fatalf("ForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
