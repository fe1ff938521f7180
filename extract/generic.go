package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesentry/models"
)

// Generic attempts common storefront patterns when no vendor profile matches.
type Generic struct{}

var genericPriceRules = []priceRule{
	selAttr("meta_product_price", `meta[property="product:price:amount"]`, "content"),
	selAttr("itemprop_price_content", `span[itemprop="price"]`, "content"),
	selText("itemprop_price", `span[itemprop="price"]`),
	selText("span_price", "span.price"),
	selText("div_price", "div.price"),
	selText("amazon_style_whole", "span.a-price-whole"),
	selText("product_price", "span.product-price"),
	selText("sale_price", "span.sale-price"),
}

// Narrow negative phrases only. Broad tokens like a bare "sold" or "ended"
// appear in unrelated page text ("5 sold this week") and must not flip the
// conservative in-stock default.
var genericOutOfStock = []string{
	"out of stock",
	"currently unavailable",
	"sold out",
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Extract(doc *goquery.Document, pageURL string) models.ExtractionResult {
	pageText := doc.Text()
	if isBlocked(pageText, nil) {
		return blockedResult("USD")
	}

	currency := "USD"
	if code, ok := doc.Find(`meta[property="product:price:currency"]`).First().Attr("content"); ok {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			currency = code
		}
	}

	inStock := !containsAny(strings.ToLower(pageText), genericOutOfStock)

	return models.ExtractionResult{
		Price:    firstPrice(doc, genericPriceRules),
		Currency: currency,
		InStock:  inStock,
		ImageURL: g.extractImage(doc, pageURL),
	}
}

func (g *Generic) extractImage(doc *goquery.Document, pageURL string) string {
	raw := firstAttr(doc, [][2]string{
		{`meta[property="og:image"]`, "content"},
		{`img[itemprop="image"]`, "src"},
		{"img#main-image", "src"},
	})
	host := ""
	if parsed, err := url.Parse(pageURL); err == nil {
		host = parsed.Host
	}
	return resolveImageURL(raw, host)
}
