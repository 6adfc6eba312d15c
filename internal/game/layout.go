package game

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// Layout is a coordinate-keyed view of a board for presentation layers. Iterate it
// through Coordinates for a deterministic order.
type Layout struct {
	tiles map[core.Coordinate]core.Tile
	order []core.Coordinate
}

// NewLayout copies the tiles of board.
func NewLayout(board *core.Board) Layout {
	tiles := make(map[core.Coordinate]core.Tile, core.TileCount)
	for i := range board.T {
		c, err := core.IndexToCoord(core.TileID(i))
		if err != nil {
			continue
		}
		tiles[c] = board.T[i]
	}
	order := maps.Keys(tiles)
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	return Layout{tiles: tiles, order: order}
}

// LayoutOf returns the layout of a state's board with stale references hidden.
func LayoutOf(gs *GameState) Layout {
	board := gs.Board.Clone()
	for i := range board.T {
		if _, ok := gs.Resolve(core.TileID(i)); !ok {
			board.T[i].Occupant = core.NoPiece
		}
	}
	return NewLayout(board)
}

// Coordinates returns every coordinate in linear index order.
func (l Layout) Coordinates() []core.Coordinate {
	out := make([]core.Coordinate, len(l.order))
	copy(out, l.order)
	return out
}

// At returns the tile at c.
func (l Layout) At(c core.Coordinate) (core.Tile, bool) {
	t, ok := l.tiles[c]
	return t, ok
}

// Len returns the number of tiles.
func (l Layout) Len() int { return len(l.tiles) }

// Occupied returns the coordinates holding a piece, in order.
func (l Layout) Occupied() []core.Coordinate {
	var out []core.Coordinate
	for _, c := range l.order {
		if t := l.tiles[c]; !t.IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}
