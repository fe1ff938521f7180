package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalToken = regexp.MustCompile(`\d+\.?\d*`)
	currencyJunk = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "¥", "", " ", " ")
)

// ParsePrice extracts the first decimal-number token from price text after
// stripping currency symbols and thousands separators. Unparsable or zero
// values yield nil: a zero is a placeholder element, never a real price.
func ParsePrice(text string) *float64 {
	if text == "" {
		return nil
	}
	cleaned := currencyJunk.Replace(text)
	token := decimalToken.FindString(cleaned)
	if token == "" {
		return nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || value == 0 {
		return nil
	}
	return &value
}

// resolveImageURL turns a possibly relative image reference into an absolute
// URL. Protocol-relative paths get https; root-relative paths resolve against
// canonicalHost; anything without a recognizable shape is discarded.
func resolveImageURL(raw, canonicalHost string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return "https://" + canonicalHost + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return raw
}

// currencyFromText infers a currency code from a symbol or code adjacent to
// the price text; empty means undetermined.
func currencyFromText(text string) string {
	switch {
	case strings.Contains(text, "US $") || strings.Contains(text, "USD") || strings.Contains(text, "$"):
		return "USD"
	case strings.Contains(text, "£") || strings.Contains(text, "GBP"):
		return "GBP"
	case strings.Contains(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	}
	return ""
}
