package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesentry/models"
)

// Ebay handles fixed-price and auction listings. Auction state comes from the
// sub-extractor in auction.go.
type Ebay struct{}

var ebayPriceRules = []priceRule{
	selText("price_primary_span", "span.x-price-primary"),
	selText("price_primary_div", "div.x-price-primary"),
	selText("prcisum", "span#prcIsum"),
	selAttr("itemprop_price_content", `[itemprop="price"]`, "content"),
	selText("itemprop_price", `[itemprop="price"]`),
	selText("main_price", "div.mainPrice"),
}

// Explicit end-of-listing phrases. A bare "ended" or a "N sold" counter
// elsewhere in the page is not evidence the listing is over.
var ebayEndedPhrases = []string{
	"this listing has ended",
	"this listing was ended",
	"bidding has ended",
	"this auction has ended",
}

func (e *Ebay) Name() string { return "ebay" }

func (e *Ebay) Extract(doc *goquery.Document, pageURL string) models.ExtractionResult {
	pageText := doc.Text()
	if isBlocked(pageText, nil) {
		return blockedResult("USD")
	}

	ended := containsAny(strings.ToLower(pageText), ebayEndedPhrases)
	auction := extractAuction(doc, ended)

	result := models.ExtractionResult{
		Price:          firstPrice(doc, ebayPriceRules),
		Currency:       e.currency(doc),
		InStock:        e.inStock(doc, auction, ended),
		ImageURL:       e.extractImage(doc),
		IsAuction:      auction.IsAuction,
		BidCount:       auction.BidCount,
		AuctionEndTime: auction.EndTime,
		BuyItNowPrice:  auction.BuyItNow,
	}
	return result
}

// inStock: an active, non-ended auction is always purchasable; an explicit
// ended phrase overrides everything else.
func (e *Ebay) inStock(doc *goquery.Document, auction auctionInfo, ended bool) bool {
	if ended {
		return false
	}
	if auction.IsAuction {
		return true
	}

	quantity := strings.ToLower(strings.TrimSpace(doc.Find("div.x-quantity__availability").First().Text()))
	if quantity != "" {
		// "More than 10 available / 34 sold" mentions both; availability wins.
		if strings.Contains(quantity, "available") || strings.Contains(quantity, "in stock") {
			return true
		}
		if strings.Contains(quantity, "out of stock") || strings.Contains(quantity, "unavailable") {
			return false
		}
	}

	// No availability block and no ended phrase: assume purchasable.
	return true
}

func (e *Ebay) currency(doc *goquery.Document) string {
	priceText := doc.Find("span.x-price-primary").First().Text()
	if priceText == "" {
		priceText = doc.Find("div.x-price-primary").First().Text()
	}
	if code := currencyFromText(priceText); code != "" {
		return code
	}
	return "USD"
}

func (e *Ebay) extractImage(doc *goquery.Document) string {
	img := doc.Find("img#icImg").First()
	if img.Length() > 0 {
		if zoom, ok := img.Attr("data-zoom-src"); ok && strings.TrimSpace(zoom) != "" {
			return resolveImageURL(zoom, "www.ebay.com")
		}
		if src, ok := img.Attr("src"); ok {
			return resolveImageURL(src, "www.ebay.com")
		}
	}
	raw := firstAttr(doc, [][2]string{
		{"div.ux-image-carousel-item img", "src"},
		{"img.vi-image-gallery__image", "src"},
	})
	return resolveImageURL(raw, "www.ebay.com")
}
