package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesentry/models"
)

// Newegg is aggressive about blocking plain HTTP clients, so the bot-check
// pass matters more here than the selector chains.
type Newegg struct{}

var neweggBlockMarkers = []string{
	"why did this happen?",
	"human?",
}

var neweggOutOfStock = []string{
	"out of stock",
	"sold out",
	"discontinued",
}

func (n *Newegg) Name() string { return "newegg" }

func (n *Newegg) Extract(doc *goquery.Document, pageURL string) models.ExtractionResult {
	if isBlocked(doc.Text(), neweggBlockMarkers) {
		return blockedResult("USD")
	}

	return models.ExtractionResult{
		Price:    n.extractPrice(doc),
		Currency: "USD",
		InStock:  n.inStock(doc),
		ImageURL: n.extractImage(doc),
	}
}

// extractPrice reassembles Newegg's split dollars/cents markup:
// <li class="price-current"><strong>299</strong><sup>.99</sup></li>
func (n *Newegg) extractPrice(doc *goquery.Document) *float64 {
	current := doc.Find("li.price-current").First()
	if current.Length() > 0 {
		dollars := strings.TrimSpace(current.Find("strong").First().Text())
		cents := strings.TrimSpace(current.Find("sup").First().Text())
		if dollars != "" {
			if price := ParsePrice(dollars + cents); price != nil {
				return price
			}
		}
	}
	return firstPrice(doc, []priceRule{selText("span_price", "span.price")})
}

func (n *Newegg) inStock(doc *goquery.Document) bool {
	inventory := strings.ToLower(strings.TrimSpace(doc.Find("div.product-inventory").First().Text()))
	if inventory != "" && containsAny(inventory, neweggOutOfStock) {
		return false
	}
	return true
}

func (n *Newegg) extractImage(doc *goquery.Document) string {
	raw := firstAttr(doc, [][2]string{
		{"img.product-view-img-original", "src"},
		{"div.product-view-img-original img", "src"},
		{"img.product-image", "src"},
	})
	return resolveImageURL(raw, "www.newegg.com")
}
