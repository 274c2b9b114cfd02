package itad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricecache"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PlainSimilarityThreshold is the Jaro-Winkler similarity under which a plain is reported as
// not matching its game's title.
const PlainSimilarityThreshold = 0.9

var (
	htmlEntityRegex = regexp.MustCompile(`&[a-z]+;`)
	articleRegex    = regexp.MustCompile(`(^| )the `)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9]+`)

	romanNumerals = strings.NewReplacer(
		"1", "i",
		"2", "ii",
		"3", "iii",
		"4", "iv",
		"5", "v",
		"6", "vi",
		"7", "vii",
		"8", "viii",
		"9", "ix",
	)
)

// ProjectedPlain guesses the plain itad would give a title: lowercase, digits as roman
// numerals, no "the", letters and digits only.
func ProjectedPlain(title string) string {
	out := strings.ToLower(title)
	out = strings.Replace(out, "&amp;", " and ", 1)
	out = htmlEntityRegex.ReplaceAllString(out, "")
	out = romanNumerals.Replace(out)
	out = articleRegex.ReplaceAllString(out, " ")
	out = nonAlnumRegex.ReplaceAllString(out, "")
	return out
}

func steamId(sku string) string {
	return "app/" + sku
}

// ResolvePlains sets the itad id of every game that does not have one. Games without a steam
// app id are confirmed to have no plain without asking itad.
func (c *Client) ResolvePlains(ctx context.Context, games []*game.Game) error {
	ctx, span := tracer.Start(ctx, "client:ResolvePlains")
	defer span.End()

	bySteamId := map[string][]*game.Game{}
	var ids []string
	for _, g := range games {
		if g.ItadID.Resolved() {
			continue
		}

		cached, err := c.cache.GetPlain(ctx, g.ItemID)
		if err == nil {
			g.ItadID = cached
			continue
		}
		if !errors.Is(err, pricecache.ErrNotFound) {
			c.tel.ReportBroken(report_client_cache, err, g.ItemID)
		}

		if g.Platform != game.PlatformSteam || g.StoreSku == "" {
			g.ItadID = game.Unavailable[string]()
			continue
		}
		id := steamId(g.StoreSku)
		if _, seen := bySteamId[id]; !seen {
			ids = append(ids, id)
		}
		bySteamId[id] = append(bySteamId[id], g)
	}
	span.SetAttributes(attribute.Int("custom.requested", len(ids)))
	if len(ids) == 0 {
		return nil
	}

	res, err := c.get(ctx, "/v01/game/plain/id/", map[string]string{
		"shop": "steam",
		"ids":  joinKeys(ids),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch plains")
		c.tel.ReportBroken(report_client_resolve_plains, err, len(ids))
		return fmt.Errorf("resolve plains: %w", err)
	}

	for _, id := range ids {
		raw, ok := res.Data[id]
		if !ok {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("no plain entry for %s", id))
			continue
		}
		var plain *string
		err := json.Unmarshal(raw, &plain)
		if err != nil {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("plain of %s: %w", id, err))
			continue
		}

		field := game.Unavailable[string]()
		if plain != nil && *plain != "" {
			field = game.Available(*plain)
		}
		for _, g := range bySteamId[id] {
			g.ItadID = field
			if plain != nil {
				c.checkPlain(g.Title, *plain)
			}
			err := c.cache.SetPlain(ctx, g.ItemID, field)
			if err != nil {
				c.tel.ReportBroken(report_client_cache, err, g.ItemID)
			}
		}
	}

	return nil
}

func (c *Client) checkPlain(title, plain string) {
	if title == "" {
		return
	}
	projected := ProjectedPlain(title)
	if projected == plain {
		return
	}
	similarity := matchr.JaroWinkler(projected, plain, false)
	if similarity < PlainSimilarityThreshold {
		c.tel.ReportWarning(report_client_plain_mismatch, title, plain, projected, similarity)
		return
	}
	c.tel.ReportDebug("plain differs from title", title, plain, projected, similarity)
}
