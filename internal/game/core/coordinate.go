package core

import (
	"fmt"
	"strings"
)

const (
	// BoardSize is the number of files (and ranks) on the board.
	BoardSize = 8
	// TileCount is the number of tiles on the board.
	TileCount = BoardSize * BoardSize
)

// TileID is a linear tile index in [0,63] using little-endian rank-file mapping:
// A1=0, H1=7, A8=56, H8=63.
type TileID uint8

// Tile constants for every square.
const (
	A1 TileID = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// Valid reports whether the id addresses a tile on the board.
func (t TileID) Valid() bool { return int(t) < TileCount }

// String returns the algebraic name of the tile, e.g. "e4".
func (t TileID) String() string {
	c, err := IndexToCoord(t)
	if err != nil {
		return fmt.Sprintf("tile(%d)", uint8(t))
	}
	return c.String()
}

// Coordinate is a (file, rank) pair, each in [0,7]. File 0 is the a-file, rank 0 is
// the first rank.
type Coordinate struct {
	File, Rank int
}

// NewCoordinate creates a coordinate with the given file and rank
func NewCoordinate(file, rank int) Coordinate {
	return Coordinate{File: file, Rank: rank}
}

// IndexToCoord converts a tile index to its coordinate.
func IndexToCoord(i TileID) (Coordinate, error) {
	if !i.Valid() {
		return Coordinate{}, fmt.Errorf("index %d: %w", uint8(i), ErrInvalidCoordinates)
	}
	return Coordinate{File: int(i) % BoardSize, Rank: int(i) / BoardSize}, nil
}

// CoordToIndex converts a coordinate to its tile index. Either axis outside [0,7]
// is an error; the index is never wrapped.
func CoordToIndex(c Coordinate) (TileID, error) {
	if !c.IsValid() {
		return 0, fmt.Errorf("coordinate %s: %w", c, ErrInvalidCoordinates)
	}
	return TileID(c.Rank*BoardSize + c.File), nil
}

// MirrorIndex rotates a tile index by 180 degrees (63 - i). Black movement is
// expressed in the mirrored frame so that forward always means away from the
// owner's back rank.
func MirrorIndex(i TileID) (TileID, error) {
	if !i.Valid() {
		return 0, fmt.Errorf("mirror index %d: %w", uint8(i), ErrInvalidCoordinates)
	}
	return TileID(TileCount-1) - i, nil
}

// IsValid checks if the coordinate is on the board
func (c Coordinate) IsValid() bool {
	return c.File >= 0 && c.File < BoardSize && c.Rank >= 0 && c.Rank < BoardSize
}

// Offset returns the coordinate shifted by df files and dr ranks. The result may be
// off the board; check IsValid before converting it.
func (c Coordinate) Offset(df, dr int) Coordinate {
	return Coordinate{File: c.File + df, Rank: c.Rank + dr}
}

// Less orders coordinates by their linear index.
func (c Coordinate) Less(other Coordinate) bool {
	if c.Rank != other.Rank {
		return c.Rank < other.Rank
	}
	return c.File < other.File
}

// Equal checks if two coordinates are equal
func (c Coordinate) Equal(other Coordinate) bool {
	return c.File == other.File && c.Rank == other.Rank
}

// String returns the algebraic name for on-board coordinates and (file,rank)
// otherwise.
func (c Coordinate) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("(%d,%d)", c.File, c.Rank)
	}
	return fmt.Sprintf("%c%d", 'a'+c.File, c.Rank+1)
}

// ParseSquare parses an algebraic square name such as "e4".
func ParseSquare(s string) (TileID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, fmt.Errorf("square %q: %w", s, ErrInvalidCoordinates)
	}
	c := Coordinate{File: int(s[0]) - 'a', Rank: int(s[1]) - '1'}
	return CoordToIndex(c)
}
