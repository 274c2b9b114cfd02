package barter

import (
	"context"
	"fmt"

	"barter-enhancer/internal/game"
)

// Page is the games of an offer or a match page.
type Page struct {
	Kind  PageKind
	Url   string
	Games *game.Registry
}

// Load fetches whatever kind of page link is.
func (c *Client) Load(ctx context.Context, link string) (Page, error) {
	kind, _, err := c.Classify(link)
	if err != nil {
		return Page{}, err
	}

	switch kind {
	case PageOffer:
		offer, err := c.FetchOffer(ctx, link)
		if err != nil {
			return Page{}, err
		}
		return Page{Kind: kind, Url: link, Games: offer.Games}, nil
	case PageMatch:
		match, err := c.FetchMatch(ctx, link)
		if err != nil {
			return Page{}, err
		}
		return Page{Kind: kind, Url: link, Games: match.Games}, nil
	}
	return Page{}, fmt.Errorf("%s is neither an offer nor a match page", link)
}
