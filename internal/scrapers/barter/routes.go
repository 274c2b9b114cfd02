package barter

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type PageKind int

const (
	PageUnknown PageKind = iota
	// PageOffer is a trade offer, https://barter.vg/u/<user>/o/<offer>/
	PageOffer
	// PageMatch is a wishlist or tradelist match page, https://barter.vg/u/<user>/[wt]/m/
	PageMatch
)

func (k PageKind) String() string {
	switch k {
	case PageOffer:
		return "offer"
	case PageMatch:
		return "match"
	}
	return "unknown"
}

var (
	offerPathRegex = regexp.MustCompile(`^/u/.+/o/.+/$`)
	matchPathRegex = regexp.MustCompile(`^(/u/.+/)[wt]/m/?$`)
)

// Classify returns what kind of page link is. Links outside of the client's base url are
// never recognized.
func (c *Client) Classify(link string) (PageKind, *url.URL, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return PageUnknown, nil, err
	}
	if parsed.Scheme != c.BaseUrl.Scheme || parsed.Host != c.BaseUrl.Host {
		return PageUnknown, parsed, nil
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return PageUnknown, parsed, nil
	}

	switch {
	case offerPathRegex.MatchString(parsed.Path):
		return PageOffer, parsed, nil
	case matchPathRegex.MatchString(parsed.Path):
		return PageMatch, parsed, nil
	}
	return PageUnknown, parsed, nil
}

// userUrl returns https://barter.vg/u/<user>/ of a match page.
func userUrl(matchUrl *url.URL) (*url.URL, error) {
	groups := matchPathRegex.FindStringSubmatch(matchUrl.Path)
	if len(groups) < 2 {
		return nil, fmt.Errorf("not a match page: %s", matchUrl)
	}
	out := *matchUrl
	out.Path = groups[1]
	out.RawQuery = ""
	out.ForceQuery = false
	return &out, nil
}

func jsonUrl(page *url.URL, suffix string) string {
	out := *page
	if !strings.HasSuffix(out.Path, "/") {
		out.Path += "/"
	}
	out.Path += suffix
	out.ForceQuery = false
	return out.String()
}
