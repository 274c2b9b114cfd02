package barter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"

	"barter-enhancer/internal/game"
	"barter-enhancer/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoMatchSection is returned for match pages that have no match columns.
var ErrNoMatchSection = errors.New("page has no match section")

// Match is the set of games linked from a match page, merged with the user's tradelist and
// wishlist data.
type Match struct {
	Url   string
	Games *game.Registry
	// Links counts how many times each item is linked on the page.
	Links map[string]int
}

type listResponse struct {
	ByPlatform map[string]json.RawMessage `json:"by_platform"`
}

func (c *Client) gameLinkRegex() *regexp.Regexp {
	base := strings.TrimSuffix(c.BaseUrl.String(), "/")
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `/i/(\d+)/`)
}

// FetchMatch scrapes the games linked in the match columns of a match page and fills them in
// from the user's tradelist and wishlist, which are fetched concurrently.
func (c *Client) FetchMatch(ctx context.Context, matchUrl string) (Match, error) {
	ctx, span := tracer.Start(ctx, "client:FetchMatch")
	defer span.End()
	span.SetAttributes(attribute.String("custom.url", matchUrl))

	fail := func(err error) (Match, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_match, err, matchUrl)
		return Match{}, fmt.Errorf("fetch match page: %w", err)
	}

	kind, parsed, err := c.Classify(matchUrl)
	if err != nil {
		return Match{}, err
	}
	if kind != PageMatch {
		return Match{}, fmt.Errorf("not a match page: %s", matchUrl)
	}
	user, err := userUrl(parsed)
	if err != nil {
		return Match{}, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(parsed.String())
	if err != nil {
		return fail(err)
	}
	if res.StatusCode() != 200 {
		return fail(fmt.Errorf("unexpected status %s", res.Status()))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fail(fmt.Errorf("parse html: %w", err))
	}
	if doc.Find(".matchcol").Length() == 0 {
		return Match{}, ErrNoMatchSection
	}

	linkRegex := c.gameLinkRegex()
	links := map[string]int{}
	titles := map[string]string{}
	var order []string
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find(".matchcol li a"), parsed) {
		groups := linkRegex.FindStringSubmatch(anchor.Href)
		if len(groups) < 2 {
			continue
		}
		id := groups[1]
		if links[id] == 0 {
			order = append(order, id)
			titles[id] = anchor.Name
		}
		links[id]++
	}
	span.SetAttributes(attribute.Int("custom.links", len(order)))

	merged, err := c.fetchLists(ctx, user)
	if err != nil {
		return fail(err)
	}

	registry := game.NewRegistry()
	for _, id := range order {
		g, ok := merged[id]
		if !ok {
			c.tel.ReportWarning(report_client_parse_game, fmt.Errorf("linked item %s is in neither list", id))
			continue
		}
		if g.Title == "" {
			g.Title = titles[id]
		}
		registry.Add(g)
	}

	return Match{
		Url:   matchUrl,
		Games: registry,
		Links: links,
	}, nil
}

// fetchLists returns the tradelist and the wishlist merged by item id, wishlist entries take
// precedence.
func (c *Client) fetchLists(ctx context.Context, user *url.URL) (map[string]*game.Game, error) {
	suffixes := []string{"t/json", "w/json"}
	responses := make([]listResponse, len(suffixes))
	errs := make([]error, len(suffixes))

	var wg sync.WaitGroup
	for i, suffix := range suffixes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.getJson(ctx, jsonUrl(user, suffix), &responses[i])
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	merged := map[string]*game.Game{}
	for _, res := range responses {
		platforms := make([]string, 0, len(res.ByPlatform))
		for platform := range res.ByPlatform {
			platforms = append(platforms, platform)
		}
		slices.SortFunc(platforms, compareKeys)

		for _, platform := range platforms {
			entries, err := collection(res.ByPlatform[platform])
			if err != nil {
				return nil, fmt.Errorf("platform %s: %w", platform, err)
			}
			for _, entry := range entries {
				g, err := c.parseGame(entry, game.DirectionNone)
				if err != nil {
					continue
				}
				merged[g.ItemID] = g
			}
		}
	}
	return merged, nil
}
