// Package extract converts fetched HTML into structured price, stock,
// currency, image and auction data. One profile per known vendor plus a
// generic fallback; all of them share the same ordered-rule machinery.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesentry/models"
)

// Profile is the extraction capability set implemented by every vendor
// variant. Extract never fails: markup it cannot interpret produces a result
// with a nil price, not an error.
type Profile interface {
	Name() string
	Extract(doc *goquery.Document, pageURL string) models.ExtractionResult
}

// priceRule is one entry of an ordered fallback chain. It returns the raw
// candidate text for a price, or "" when the rule does not apply. Rules are
// pure so each one is testable on its own.
type priceRule struct {
	name string
	text func(doc *goquery.Document) string
}

// firstPrice evaluates rules in priority order; the first rule whose text
// parses to a usable number wins. Ordering matters: rules scoped to the
// primary product container must come before page-wide selectors, otherwise
// sponsored placements earlier in the DOM win.
func firstPrice(doc *goquery.Document, rules []priceRule) *float64 {
	for _, rule := range rules {
		raw := rule.text(doc)
		if raw == "" {
			continue
		}
		if price := ParsePrice(raw); price != nil {
			return price
		}
	}
	return nil
}

// selText builds a rule reading the text of the first match of sel.
func selText(name, sel string) priceRule {
	return priceRule{
		name: name,
		text: func(doc *goquery.Document) string {
			return strings.TrimSpace(doc.Find(sel).First().Text())
		},
	}
}

// selAttr builds a rule reading an attribute of the first match of sel.
func selAttr(name, sel, attr string) priceRule {
	return priceRule{
		name: name,
		text: func(doc *goquery.Document) string {
			value, _ := doc.Find(sel).First().Attr(attr)
			return strings.TrimSpace(value)
		},
	}
}

// firstAttr walks selector/attribute pairs and returns the first non-empty
// attribute value. Used by the image fallback chains.
func firstAttr(doc *goquery.Document, probes [][2]string) string {
	for _, probe := range probes {
		if value, ok := doc.Find(probe[0]).First().Attr(probe[1]); ok {
			value = strings.TrimSpace(value)
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// containsAny reports whether text contains any of the given phrases.
// Callers pass lowercased text.
func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// FromHTML parses html and runs the profile selected for pageURL. It returns
// the result together with the profile name, which the URL-test trigger
// reports back to the caller.
func FromHTML(html, pageURL string) (models.ExtractionResult, string) {
	profile := ForURL(pageURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable bytes are an extraction miss, not a crash.
		return models.ExtractionResult{Currency: "USD", InStock: true}, profile.Name()
	}
	return profile.Extract(doc, pageURL), profile.Name()
}
