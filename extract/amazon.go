package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesentry/models"
)

// Amazon handles amazon.com and country storefronts. Amazon pages frequently
// carry sponsored placements with their own price markup ahead of the buy
// box, so the rules scoped to the core price container run first.
type Amazon struct{}

var amazonBlockMarkers = []string{
	"enter the characters you see below",
	"api-services-support@amazon.com",
}

var amazonPriceRules = []priceRule{
	// Primary product container before any page-wide selector.
	selText("core_price_offscreen", "#corePrice_feature_div span.a-offscreen"),
	{name: "core_price_split", text: func(doc *goquery.Document) string {
		return combinedAmazonPrice(doc.Find("#corePrice_feature_div").First())
	}},
	selText("priceblock_ourprice", "span#priceblock_ourprice"),
	selText("priceblock_dealprice", "span#priceblock_dealprice"),
	selText("priceblock_saleprice", "span#priceblock_saleprice"),
	selText("buybox_xl", `span.a-price[data-a-size="xl"] span.a-offscreen`),
	{name: "split_price", text: func(doc *goquery.Document) string {
		return combinedAmazonPrice(doc.Selection)
	}},
	selText("offscreen_any", "span.a-offscreen"),
}

var amazonOutOfStock = []string{
	"out of stock",
	"currently unavailable",
	"temporarily out of stock",
	"unavailable",
}

// combinedAmazonPrice joins the whole and fraction spans Amazon splits a
// price into ("1,299" + "99").
func combinedAmazonPrice(scope *goquery.Selection) string {
	whole := strings.TrimSpace(scope.Find("span.a-price-whole").First().Text())
	if whole == "" {
		return ""
	}
	whole = strings.TrimSuffix(whole, ".")
	fraction := strings.TrimSpace(scope.Find("span.a-price-fraction").First().Text())
	if fraction == "" {
		return whole
	}
	return whole + "." + fraction
}

func (a *Amazon) Name() string { return "amazon" }

func (a *Amazon) Extract(doc *goquery.Document, pageURL string) models.ExtractionResult {
	currency := a.currencyForDomain(pageURL)

	if isBlocked(doc.Text(), amazonBlockMarkers) {
		return blockedResult(currency)
	}

	return models.ExtractionResult{
		Price:    firstPrice(doc, amazonPriceRules),
		Currency: currency,
		InStock:  a.inStock(doc),
		ImageURL: a.extractImage(doc),
	}
}

// inStock inspects the availability block only; negative phrases elsewhere on
// the page (reviews, Q&A) must not produce a false out-of-stock.
func (a *Amazon) inStock(doc *goquery.Document) bool {
	availability := strings.ToLower(strings.TrimSpace(doc.Find("div#availability").First().Text()))
	if availability != "" {
		if containsAny(availability, amazonOutOfStock) {
			return false
		}
		if strings.Contains(availability, "in stock") || strings.Contains(availability, "available") {
			return true
		}
	}

	cart := doc.Find("input#add-to-cart-button").First()
	if cart.Length() > 0 {
		if _, disabled := cart.Attr("disabled"); !disabled {
			return true
		}
	}
	return true
}

func (a *Amazon) currencyForDomain(pageURL string) string {
	lower := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lower, ".co.uk"):
		return "GBP"
	case strings.Contains(lower, ".com.au"):
		return "AUD"
	case strings.Contains(lower, ".ca"):
		return "CAD"
	case strings.Contains(lower, ".de"), strings.Contains(lower, ".fr"),
		strings.Contains(lower, ".es"), strings.Contains(lower, ".it"):
		return "EUR"
	case strings.Contains(lower, ".jp"):
		return "JPY"
	}
	return "USD"
}

func (a *Amazon) extractImage(doc *goquery.Document) string {
	img := doc.Find("img#landingImage").First()
	if img.Length() == 0 {
		img = doc.Find("div#imgTagWrapperId img").First()
	}
	if img.Length() == 0 {
		img = doc.Find("img.a-dynamic-image").First()
	}
	if img.Length() == 0 {
		return ""
	}

	if hires, ok := img.Attr("data-old-hires"); ok && strings.TrimSpace(hires) != "" {
		return resolveImageURL(hires, "www.amazon.com")
	}

	if dynamic, ok := img.Attr("data-a-dynamic-image"); ok && dynamic != "" {
		if imageURL := largestDynamicImage(dynamic); imageURL != "" {
			return resolveImageURL(imageURL, "www.amazon.com")
		}
	}

	if src, ok := img.Attr("src"); ok {
		return resolveImageURL(src, "www.amazon.com")
	}
	return ""
}

// largestDynamicImage reads the data-a-dynamic-image JSON object, which maps
// each rendition URL to its [width, height], and picks the URL with the
// largest pixel area. Equal areas tie-break on the URL so the choice is
// stable across runs.
func largestDynamicImage(raw string) string {
	var sizes map[string][]int
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		return ""
	}

	best := ""
	bestArea := -1
	for imageURL, dims := range sizes {
		area := 0
		if len(dims) >= 2 {
			area = dims[0] * dims[1]
		}
		if area > bestArea || (area == bestArea && imageURL < best) {
			best = imageURL
			bestArea = area
		}
	}
	return best
}
