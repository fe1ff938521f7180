package extract

import (
	"strings"

	"pricesentry/models"
)

// Challenge/interstitial markers. Matching any of these means the vendor
// served a bot wall instead of the listing; the page carries no usable price
// and must not be read as out-of-stock.
var blockMarkers = []string{
	"captcha",
	"verify you are human",
	"are you a human",
	"robot check",
	"access denied",
	"enable javascript and cookies",
	"pardon our interruption",
}

// isBlocked scans the raw page text for challenge markers before any
// extraction is attempted. vendorMarkers extends the shared set per profile.
func isBlocked(text string, vendorMarkers []string) bool {
	lower := strings.ToLower(text)
	return containsAny(lower, blockMarkers) || containsAny(lower, vendorMarkers)
}

// blockedResult is the fixed outcome for a detected challenge page:
// price unknown, stock assumed available.
func blockedResult(currency string) models.ExtractionResult {
	return models.ExtractionResult{
		Currency: currency,
		InStock:  true,
		Blocked:  true,
	}
}
