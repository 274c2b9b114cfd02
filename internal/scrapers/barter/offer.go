package barter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"barter-enhancer/internal/game"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrOfferUnavailable is returned for offers barter.vg refuses to show (private, deleted, ...).
var ErrOfferUnavailable = errors.New("offer is unavailable")

// ErrOfferCreating is returned for offers that are still being put together.
var ErrOfferCreating = errors.New("offer is still being created")

type offerResponse struct {
	Error   *string `json:"error"`
	Success *bool   `json:"success"`
	Status  string  `json:"status"`
	Items   struct {
		To   json.RawMessage `json:"to"`
		From json.RawMessage `json:"from"`
	} `json:"items"`
}

// Offer is a trade offer, its games carry the direction they are traded in.
type Offer struct {
	Url    string
	Status string
	Games  *game.Registry
}

// FetchOffer reads `<offerUrl>json`. A game that cannot be read is reported and skipped.
func (c *Client) FetchOffer(ctx context.Context, offerUrl string) (Offer, error) {
	ctx, span := tracer.Start(ctx, "client:FetchOffer")
	defer span.End()
	span.SetAttributes(attribute.String("custom.url", offerUrl))

	kind, parsed, err := c.Classify(offerUrl)
	if err != nil {
		return Offer{}, err
	}
	if kind != PageOffer {
		return Offer{}, fmt.Errorf("not an offer page: %s", offerUrl)
	}

	var res offerResponse
	err = c.getJson(ctx, jsonUrl(parsed, "json"), &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch offer json")
		c.tel.ReportBroken(report_client_fetch_offer, err, offerUrl)
		return Offer{}, fmt.Errorf("could not retrieve JSON data for this offer: %w", err)
	}
	if res.Error != nil {
		return Offer{}, fmt.Errorf("%w: %s", ErrOfferUnavailable, *res.Error)
	}
	if res.Success != nil && !*res.Success {
		return Offer{}, ErrOfferUnavailable
	}
	if strings.EqualFold(strings.TrimRight(res.Status, "."), "creating") {
		return Offer{}, ErrOfferCreating
	}

	registry := game.NewRegistry()
	sides := []struct {
		direction game.Direction
		raw       json.RawMessage
	}{
		{direction: game.DirectionTo, raw: res.Items.To},
		{direction: game.DirectionFrom, raw: res.Items.From},
	}
	for _, side := range sides {
		err := c.addGames(registry, side.raw, side.direction)
		if err != nil {
			c.tel.ReportBroken(report_client_fetch_offer, err, offerUrl)
			return Offer{}, fmt.Errorf("offer items %s: %w", side.direction, err)
		}
	}
	span.SetAttributes(attribute.Int("custom.games", registry.Len()))

	return Offer{
		Url:    offerUrl,
		Status: res.Status,
		Games:  registry,
	}, nil
}

func (c *Client) addGames(registry *game.Registry, raw json.RawMessage, direction game.Direction) error {
	entries, err := collection(raw)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		g, err := c.parseGame(entry, direction)
		if err != nil {
			continue
		}
		if !registry.Add(g) {
			c.tel.ReportWarning(report_client_parse_game, fmt.Errorf("duplicate item %s", g.ItemID))
		}
	}
	return nil
}

func (c *Client) parseGame(entry json.RawMessage, direction game.Direction) (*game.Game, error) {
	var raw rawGame
	err := json.Unmarshal(entry, &raw)
	if err != nil {
		c.tel.ReportWarning(report_client_parse_game, err)
		return nil, err
	}
	g, err := raw.toGame(direction)
	if err != nil {
		c.tel.ReportWarning(report_client_parse_game, err)
		return nil, err
	}
	return g, nil
}
