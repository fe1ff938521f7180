package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// auctionInfo is the auction sub-extractor's output, folded into the eBay
// profile's ExtractionResult.
type auctionInfo struct {
	IsAuction bool
	BidCount  *int
	EndTime   *time.Time
	BuyItNow  *float64
}

var (
	bidCountPattern = regexp.MustCompile(`(?i)\b(\d+)\s+bids?\b`)
	countdownToken  = regexp.MustCompile(`(?i)\b(\d+)\s*([dhms])\b`)
)

// Countdown text lives in a small set of timer containers; scanning the whole
// page would match unrelated "3d" tokens in descriptions.
var countdownSelectors = []string{
	"span.ux-timer_timeLeft",
	"span.ux-timer",
	"#vi-cdown_timeLeft",
	"span.vi-tm-left",
}

var buyItNowRules = []priceRule{
	selText("bin_price", "div.x-bin-price span.x-price-primary"),
	selText("bin_price_legacy", "span#binPrice"),
}

// extractAuction detects bid-based listings. IsAuction is asserted only on an
// explicit "N bids" match; any other signal is too ambiguous on its own.
func extractAuction(doc *goquery.Document, ended bool) auctionInfo {
	info := auctionInfo{}

	bidText := strings.TrimSpace(doc.Find("span.x-bid-count").First().Text())
	if bidText == "" {
		bidText = doc.Text()
	}
	match := bidCountPattern.FindStringSubmatch(bidText)
	if match == nil {
		return info
	}
	count, err := strconv.Atoi(match[1])
	if err != nil {
		return info
	}

	info.IsAuction = true
	info.BidCount = &count
	info.BuyItNow = firstPrice(doc, buyItNowRules)

	if !ended {
		if remaining, ok := findCountdown(doc); ok {
			// Re-based on the wall clock at parse time. The computed end time
			// drifts by however long the listing sat between render and scan;
			// a later scan producing a different value is expected.
			end := time.Now().Add(remaining)
			info.EndTime = &end
		}
	}
	return info
}

func findCountdown(doc *goquery.Document) (time.Duration, bool) {
	for _, sel := range countdownSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if remaining, ok := parseCountdown(text); ok {
			return remaining, true
		}
	}
	return 0, false
}

// parseCountdown reads a relative countdown like "2d 3h 15m 10s"; any subset
// of components may be present but at least one must be.
func parseCountdown(text string) (time.Duration, bool) {
	var total time.Duration
	matched := false
	for _, token := range countdownToken.FindAllStringSubmatch(text, -1) {
		value, err := strconv.Atoi(token[1])
		if err != nil {
			continue
		}
		matched = true
		switch strings.ToLower(token[2]) {
		case "d":
			total += time.Duration(value) * 24 * time.Hour
		case "h":
			total += time.Duration(value) * time.Hour
		case "m":
			total += time.Duration(value) * time.Minute
		case "s":
			total += time.Duration(value) * time.Second
		}
	}
	return total, matched
}
