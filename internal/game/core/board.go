package core

import "fmt"

// Background is the shading of a tile.
type Background uint8

const (
	Dark Background = iota
	Light
)

func (b Background) String() string {
	if b == Light {
		return "light"
	}
	return "dark"
}

// Tile is one of the 64 board cells.
// WhiteEndzone marks where white pawns promote, BlackEndzone where black pawns
// promote. Occupant is a non-owning reference to a piece held by a roster;
// NoPiece means the tile is empty.
type Tile struct {
	Index        TileID
	Shade        Background
	WhiteEndzone bool
	BlackEndzone bool
	Occupant     PieceID
}

// NewTile creates a tile. A tile cannot be a promotion zone for both colors.
func NewTile(index TileID, shade Background, whiteEndzone, blackEndzone bool) (Tile, error) {
	if !index.Valid() {
		return Tile{}, fmt.Errorf("tile %d: %w", uint8(index), ErrInvalidCoordinates)
	}
	if whiteEndzone && blackEndzone {
		return Tile{}, fmt.Errorf("tile %s is marked as both promotion zones: %w", index, ErrInvalidConfig)
	}
	return Tile{
		Index:        index,
		Shade:        shade,
		WhiteEndzone: whiteEndzone,
		BlackEndzone: blackEndzone,
	}, nil
}

// IsEmpty reports whether no piece references this tile.
func (t *Tile) IsEmpty() bool { return t.Occupant == NoPiece }

// IsEndzoneFor reports whether a pawn of the given color promotes here.
func (t *Tile) IsEndzoneFor(c Color) bool {
	if c == White {
		return t.WhiteEndzone
	}
	return t.BlackEndzone
}

// Board is the fixed 8x8 grid, stored row-major from A1.
type Board struct {
	T [TileCount]Tile
}

// NewBoard builds the standard board: A1 is dark and shading alternates with
// file+rank parity. The eighth rank is the white promotion zone and the first rank
// the black one.
func NewBoard() (*Board, error) {
	b := &Board{}
	for i := 0; i < TileCount; i++ {
		id := TileID(i)
		c, _ := IndexToCoord(id)
		shade := Light
		if (c.File+c.Rank)%2 == 0 {
			shade = Dark
		}
		tile, err := NewTile(id, shade, c.Rank == BoardSize-1, c.Rank == 0)
		if err != nil {
			return nil, err
		}
		b.T[i] = tile
	}
	return b, nil
}

// MustNewBoard is NewBoard for callers that treat a misconfigured board as fatal.
func MustNewBoard() *Board {
	b, err := NewBoard()
	if err != nil {
		panic("board construction: " + err.Error())
	}
	return b
}

// Tile returns the tile at id
func (b *Board) Tile(id TileID) (*Tile, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("tile %d: %w", uint8(id), ErrInvalidCoordinates)
	}
	return &b.T[id], nil
}

// Occupant returns the piece id referenced by the tile, if any.
func (b *Board) Occupant(id TileID) (PieceID, bool) {
	if !id.Valid() {
		return NoPiece, false
	}
	occ := b.T[id].Occupant
	return occ, occ != NoPiece
}

// Set installs a non-owning reference. Callers outside the placement discipline
// should use game.PlacePiece instead.
func (b *Board) Set(id TileID, piece PieceID) error {
	t, err := b.Tile(id)
	if err != nil {
		return err
	}
	t.Occupant = piece
	return nil
}

// Clear removes the reference on a tile.
func (b *Board) Clear(id TileID) error {
	t, err := b.Tile(id)
	if err != nil {
		return err
	}
	t.Occupant = NoPiece
	return nil
}

// ClearAll removes every reference, keeping tile attributes.
func (b *Board) ClearAll() {
	for i := range b.T {
		b.T[i].Occupant = NoPiece
	}
}

// OccupiedCount returns how many tiles reference a piece.
func (b *Board) OccupiedCount() int {
	n := 0
	for i := range b.T {
		if b.T[i].Occupant != NoPiece {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Equal compares tiles, including occupancy.
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.T == other.T
}
