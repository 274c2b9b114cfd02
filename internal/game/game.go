// Package game holds the per-page game registry that the price clients enrich in place.
package game

// PlatformSteam is barter.vg's platform id for Steam.
const PlatformSteam = 1

type Direction string

const (
	DirectionNone Direction = ""
	// DirectionTo is the side of an offer the user receives.
	DirectionTo Direction = "to"
	// DirectionFrom is the side of an offer the user gives away.
	DirectionFrom Direction = "from"
)

// PriceRecord is one price quote for a game.
type PriceRecord struct {
	Price           float64 `json:"price"`
	PriceOld        float64 `json:"price_old"`
	DiscountPercent int     `json:"discount_percent"`
	Currency        string  `json:"currency"`
	ShopID          string  `json:"shop_id,omitempty"`
	ShopName        string  `json:"shop_name,omitempty"`
}

type PriceField = Field[PriceRecord]

// PlainField is the IsThereAnyDeal identifier of a game.
type PlainField = Field[string]

// Game is one tradeable item appearing in an offer or a wishlist/tradelist.
//
// Price fields are owned by exactly one price client each (SteamPrice by the steam client,
// ItadID/ItadPrice/LowestPrice by the itad client), so clients running concurrently never
// write the same field.
type Game struct {
	ItemID    string
	Title     string
	Platform  int
	Direction Direction
	// StoreSku is the Steam app id, empty when the game has none.
	StoreSku string

	Tradable int
	Wishlist int

	// ReviewPositive is the percentage of positive reviews.
	ReviewPositive   int
	ReviewTotal      int
	BundlesAll       int
	BundlesAvailable int

	ItadID      PlainField
	SteamPrice  PriceField
	ItadPrice   PriceField
	LowestPrice PriceField
}

// Registry is the set of games on one page, unique by ItemID and kept in insertion order.
type Registry struct {
	order []string
	games map[string]*Game
}

func NewRegistry() *Registry {
	return &Registry{games: map[string]*Game{}}
}

// Add inserts g, returning false (and keeping the existing game) if the item id is
// already present.
func (r *Registry) Add(g *Game) bool {
	if _, exists := r.games[g.ItemID]; exists {
		return false
	}
	r.games[g.ItemID] = g
	r.order = append(r.order, g.ItemID)
	return true
}

func (r *Registry) Get(itemId string) (*Game, bool) {
	g, ok := r.games[itemId]
	return g, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the games in insertion order.
func (r *Registry) All() []*Game {
	out := make([]*Game, len(r.order))
	for i, id := range r.order {
		out[i] = r.games[id]
	}
	return out
}

// InDirection returns the games on one side of an offer, in insertion order.
func (r *Registry) InDirection(d Direction) []*Game {
	var out []*Game
	for _, id := range r.order {
		if g := r.games[id]; g.Direction == d {
			out = append(out, g)
		}
	}
	return out
}
