package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldEncoding(t *testing.T) {
	_, err := json.Marshal(PriceField{})
	require.Error(t, err, "unresolved fields have no encoding")

	serialized, err := json.Marshal(Unavailable[PriceRecord]())
	require.NoError(t, err)
	require.Equal(t, "null", string(serialized))

	var decoded PriceField
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.Equal(t, StateUnavailable, decoded.State())

	record := PriceRecord{Price: 0, PriceOld: 9.99, DiscountPercent: 100, Currency: "EUR", ShopID: "steam", ShopName: "Steam"}
	serialized, err = json.Marshal(Available(record))
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal(serialized, &decoded))
	got, ok := decoded.Get()
	require.True(t, ok)
	require.Equal(t, record, got)
}

func TestFieldZeroValue(t *testing.T) {
	var plain PlainField
	require.Equal(t, StateUnresolved, plain.State())
	require.False(t, plain.Resolved())
	_, ok := plain.Get()
	require.False(t, ok)

	require.True(t, Unavailable[string]().Resolved())
	_, ok = Unavailable[string]().Get()
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	require.True(t, registry.Add(&Game{ItemID: "3", Direction: DirectionTo}))
	require.True(t, registry.Add(&Game{ItemID: "1", Direction: DirectionFrom}))
	require.True(t, registry.Add(&Game{ItemID: "2", Direction: DirectionTo}))
	require.False(t, registry.Add(&Game{ItemID: "1", Title: "duplicate"}))

	require.Equal(t, 3, registry.Len())

	var ids []string
	for _, g := range registry.All() {
		ids = append(ids, g.ItemID)
	}
	require.Equal(t, []string{"3", "1", "2"}, ids)

	to := registry.InDirection(DirectionTo)
	require.Len(t, to, 2)
	require.Equal(t, "2", to[1].ItemID)

	g, ok := registry.Get("1")
	require.True(t, ok)
	require.Empty(t, g.Title)
}
