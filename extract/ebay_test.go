package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEbayFixedPriceListing(t *testing.T) {
	html := `<html><body>
		<div class="x-buybox">
			<span class="x-price-primary">US $34.95</span>
			<div class="x-quantity__availability"><span>More than 10 available / 23 sold</span></div>
			<a id="atcBtn" href="#">Add to cart</a>
		</div>
		<img id="icImg" src="https://i.ebayimg.com/images/g/abc/s-l500.jpg"
		     data-zoom-src="https://i.ebayimg.com/images/g/abc/s-l1600.jpg">
	</body></html>`

	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.com/itm/123")

	require.NotNil(t, result.Price)
	require.Equal(t, 34.95, *result.Price)
	require.Equal(t, "USD", result.Currency)
	require.True(t, result.InStock, "sold counter next to availability must not flip stock")
	require.False(t, result.IsAuction)
	require.Nil(t, result.BidCount)
	require.Equal(t, "https://i.ebayimg.com/images/g/abc/s-l1600.jpg", result.ImageURL)
}

func TestEbayAuctionListing(t *testing.T) {
	html := `<html><body>
		<span class="x-price-primary">£54.10</span>
		<span class="x-bid-count">12 bids</span>
		<span class="ux-timer_timeLeft">2d 3h 15m 10s left</span>
		<div class="x-bin-price"><span class="x-price-primary">£120.00</span></div>
	</body></html>`

	before := time.Now()
	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.co.uk/itm/123")
	after := time.Now()

	require.True(t, result.IsAuction)
	require.NotNil(t, result.BidCount)
	require.Equal(t, 12, *result.BidCount)
	require.Equal(t, "GBP", result.Currency)
	require.True(t, result.InStock, "active auctions are always in stock")

	require.NotNil(t, result.AuctionEndTime)
	remaining := 2*24*time.Hour + 3*time.Hour + 15*time.Minute + 10*time.Second
	require.WithinRange(t, *result.AuctionEndTime, before.Add(remaining), after.Add(remaining))

	require.NotNil(t, result.BuyItNowPrice)
	require.Equal(t, 120.0, *result.BuyItNowPrice)
}

func TestEbayAuctionWithoutTimerHasNoEndTime(t *testing.T) {
	html := `<html><body>
		<span class="x-price-primary">US $54.10</span>
		<span class="x-bid-count">3 bids</span>
	</body></html>`

	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.com/itm/123")

	require.True(t, result.IsAuction)
	require.Nil(t, result.AuctionEndTime)
}

func TestEbayNoBidPatternMeansNoAuction(t *testing.T) {
	// Ambiguous signals (a timer, "auction" in the description) are not
	// enough without an explicit bid count.
	html := `<html><body>
		<span class="x-price-primary">US $54.10</span>
		<span class="ux-timer_timeLeft">4h 30m left</span>
		<p>This is an auction-style template description.</p>
	</body></html>`

	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.com/itm/123")

	require.False(t, result.IsAuction)
	require.Nil(t, result.BidCount)
	require.Nil(t, result.AuctionEndTime)
}

func TestEbayEndedListing(t *testing.T) {
	html := `<html><body>
		<div class="vi-overlayTitleBar"><span>This listing has ended</span></div>
		<span class="x-price-primary">US $54.10</span>
		<span class="x-bid-count">12 bids</span>
	</body></html>`

	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.com/itm/123")

	require.False(t, result.InStock, "an explicit ended phrase overrides auction stock")
	require.True(t, result.IsAuction)
	require.Nil(t, result.AuctionEndTime)
}

func TestEbayBareEndedTokenIgnored(t *testing.T) {
	html := `<html><body>
		<span class="x-price-primary">US $54.10</span>
		<p>The promotion ended last year, but this item ships today.</p>
	</body></html>`

	result := (&Ebay{}).Extract(parseDoc(t, html), "https://www.ebay.com/itm/123")

	require.True(t, result.InStock)
}

func TestParseCountdown(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
		ok   bool
	}{
		{"2d 3h 15m 10s", 51*time.Hour + 15*time.Minute + 10*time.Second, true},
		{"4h 30m", 4*time.Hour + 30*time.Minute, true},
		{"59s left", 59 * time.Second, true},
		{"6d", 6 * 24 * time.Hour, true},
		{"Time left:", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseCountdown(tt.text)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
