package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestGenericMetaPrice(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="129.99">
	</head><body><h1>Widget</h1></body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.NotNil(t, result.Price)
	require.Equal(t, 129.99, *result.Price)
	require.Equal(t, "USD", result.Currency)
	require.True(t, result.InStock)
	require.False(t, result.Blocked)
}

func TestGenericMetaCurrency(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="54.10">
		<meta property="product:price:currency" content="gbp">
	</head><body></body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.Equal(t, "GBP", result.Currency)
}

func TestGenericPriceRuleOrder(t *testing.T) {
	// The meta tag outranks a span.price carrying a different number.
	html := `<html><head>
		<meta property="product:price:amount" content="99.00">
	</head><body><span class="price">$149.00</span></body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.NotNil(t, result.Price)
	require.Equal(t, 99.0, *result.Price)
}

func TestGenericBlockedPage(t *testing.T) {
	html := `<html><body>
		<h1>Please complete the CAPTCHA to continue</h1>
	</body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.Nil(t, result.Price)
	require.True(t, result.InStock, "a bot wall must not read as out-of-stock")
	require.True(t, result.Blocked)
}

func TestGenericStockConservatism(t *testing.T) {
	html := `<html><body>
		<span class="price">$20.00</span>
		<p>5 sold this week. Auction ended reviews say it is great.</p>
	</body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.True(t, result.InStock, "ambiguous tokens must not flip stock")
}

func TestGenericOutOfStockPhrase(t *testing.T) {
	html := `<html><body>
		<span class="price">$20.00</span>
		<div class="availability">Currently unavailable</div>
	</body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.False(t, result.InStock)
}

func TestGenericImageFromOpenGraph(t *testing.T) {
	html := `<html><head>
		<meta property="og:image" content="/media/widget.jpg">
	</head><body></body></html>`

	result := (&Generic{}).Extract(parseDoc(t, html), "https://shop.example/widget")

	require.Equal(t, "https://shop.example/media/widget.jpg", result.ImageURL)
}

func TestExtractionIdempotent(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="129.99">
		<meta property="og:image" content="https://cdn.example/widget.jpg">
	</head><body><span class="price">$129.99</span></body></html>`

	first, firstName := FromHTML(html, "https://shop.example/widget")
	second, secondName := FromHTML(html, "https://shop.example/widget")

	require.Equal(t, firstName, secondName)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, firstJSON, secondJSON)
}
