package extract

import (
	"net/url"
	"strings"
)

// Profiles are stateless; one shared instance each.
var (
	amazonProfile  = &Amazon{}
	ebayProfile    = &Ebay{}
	neweggProfile  = &Newegg{}
	genericProfile = &Generic{}
)

// ForURL selects the extraction profile for a URL by domain substring, in a
// fixed priority order. Unknown vendors are not an error; they resolve to the
// generic profile.
func ForURL(rawURL string) Profile {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	host = strings.ToLower(host)

	switch {
	case strings.Contains(host, "amazon.com") || strings.Contains(host, "amazon.co"):
		return amazonProfile
	case strings.Contains(host, "ebay.com") || strings.Contains(host, "ebay.co"):
		return ebayProfile
	case strings.Contains(host, "newegg.com"):
		return neweggProfile
	}
	return genericProfile
}
