package barter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"barter-enhancer/internal/game"
)

// flexString accepts a json string or number, barter.vg is not consistent about ids.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*s = flexString(num.String())
	return nil
}

// flexInt accepts a json number, a numeric string or null (0).
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %q", s)
	}
	*i = flexInt(n)
	return nil
}

type rawGame struct {
	ItemID              flexString `json:"item_id"`
	Title               string     `json:"title"`
	Platform            flexInt    `json:"platform"`
	Sku                 flexString `json:"sku"`
	Tradable            flexInt    `json:"tradable"`
	Wishlist            flexInt    `json:"wishlist"`
	UserReviewsPositive flexInt    `json:"user_reviews_positive"`
	UserReviewsTotal    flexInt    `json:"user_reviews_total"`
	BundlesAll          flexInt    `json:"bundles_all"`
	BundlesAvailable    flexInt    `json:"bundles_available"`
}

func (r rawGame) toGame(direction game.Direction) (*game.Game, error) {
	if r.ItemID == "" {
		return nil, fmt.Errorf("game has no item id")
	}
	counts := []flexInt{
		r.Tradable, r.Wishlist,
		r.UserReviewsPositive, r.UserReviewsTotal,
		r.BundlesAll, r.BundlesAvailable,
	}
	for _, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("game %s has a negative count", r.ItemID)
		}
	}

	return &game.Game{
		ItemID:           string(r.ItemID),
		Title:            r.Title,
		Platform:         int(r.Platform),
		Direction:        direction,
		StoreSku:         strings.TrimSpace(string(r.Sku)),
		Tradable:         int(r.Tradable),
		Wishlist:         int(r.Wishlist),
		ReviewPositive:   int(r.UserReviewsPositive),
		ReviewTotal:      int(r.UserReviewsTotal),
		BundlesAll:       int(r.BundlesAll),
		BundlesAvailable: int(r.BundlesAvailable),
	}, nil
}

// compareKeys orders numeric keys numerically before any other key.
func compareKeys(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// collection is a json array or an object keyed by id, barter.vg uses both. The values of an
// object are returned in key order.
func collection(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var object map[string]json.RawMessage
	err := json.Unmarshal(trimmed, &object)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)

	out := make([]json.RawMessage, len(keys))
	for i, key := range keys {
		out[i] = object[key]
	}
	return out, nil
}
