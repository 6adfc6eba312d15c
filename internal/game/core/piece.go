package core

import (
	"fmt"
	"strings"
)

// PlayerID identifies a seat at the table. false is the first player (white),
// true is the second player (black).
type PlayerID bool

const (
	PlayerOne PlayerID = false
	PlayerTwo PlayerID = true
)

// Color returns the color the player controls.
func (p PlayerID) Color() Color {
	if p == PlayerTwo {
		return Black
	}
	return White
}

// Other returns the opposing player.
func (p PlayerID) Other() PlayerID { return !p }

func (p PlayerID) String() string {
	if p == PlayerTwo {
		return "player_2"
	}
	return "player_1"
}

// Color associates pieces with their owning player. White moves first.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("Color(%d)", c)
	}
}

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// PlayerID returns the seat that controls this color.
func (c Color) PlayerID() PlayerID {
	return PlayerID(c == Black)
}

// MatchesBackground reports whether a piece of this color shares the tile shade:
// white with light, black with dark. In the standard setup each queen stands on a
// tile of her own color.
func (c Color) MatchesBackground(bg Background) bool {
	return (c == White && bg == Light) || (c == Black && bg == Dark)
}

// PieceID identifies a piece. The sign encodes the color: white ids are 1..16,
// black ids are -16..-1. Zero never identifies a piece and marks an empty tile.
type PieceID int16

// NoPiece is the zero PieceID.
const NoPiece PieceID = 0

// MaxPiecesPerSide bounds a roster.
const MaxPiecesPerSide = 16

// Color derives the piece color from the id sign.
func (id PieceID) Color() (Color, bool) {
	switch {
	case id >= 1 && id <= MaxPiecesPerSide:
		return White, true
	case id <= -1 && id >= -MaxPiecesPerSide:
		return Black, true
	default:
		return White, false
	}
}

// Valid reports whether the id falls in either color's range.
func (id PieceID) Valid() bool {
	_, ok := id.Color()
	return ok
}

// PieceType distinguishes movement rules.
type PieceType uint8

const (
	Pawn PieceType = iota
	Rook
	Knight
	Bishop
	Queen
	King
)

var pieceTypeNames = [...]string{"pawn", "rook", "knight", "bishop", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", t)
}

// ParsePieceType parses a piece type name ("queen") or its letter ("q").
func ParsePieceType(s string) (PieceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range pieceTypeNames {
		if s == name {
			return PieceType(i), nil
		}
	}
	switch s {
	case "p":
		return Pawn, nil
	case "r":
		return Rook, nil
	case "n":
		return Knight, nil
	case "b":
		return Bishop, nil
	case "q":
		return Queen, nil
	case "k":
		return King, nil
	}
	return 0, fmt.Errorf("%w: unknown piece type %q", ErrValidation, s)
}

// Piece is owned by exactly one roster. Boards only hold its id.
type Piece struct {
	ID    PieceID
	Color Color
	Type  PieceType
	Loc   TileID
	Moves int
}

// NewPiece builds a piece, rejecting an id whose sign disagrees with the color.
func NewPiece(ty PieceType, color Color, loc TileID, id PieceID) (Piece, error) {
	idColor, ok := id.Color()
	if !ok || idColor != color {
		return Piece{}, fmt.Errorf("piece %d (%s %s): %w", id, color, ty, ErrInvalidPieceID)
	}
	if !loc.Valid() {
		return Piece{}, fmt.Errorf("piece %d: %w", id, ErrInvalidCoordinates)
	}
	return Piece{ID: id, Color: color, Type: ty, Loc: loc}, nil
}

// UpdateLoc relocates the piece and counts the move.
func (p *Piece) UpdateLoc(loc TileID) {
	p.Loc = loc
	p.Moves++
}

// SetID assigns the identifier at setup.
func (p *Piece) SetID(id PieceID) {
	p.ID = id
}

// HasMoved reports whether the piece left its setup square at least once.
func (p Piece) HasMoved() bool { return p.Moves > 0 }

func (p Piece) String() string {
	return fmt.Sprintf("%s %s #%d@%s", p.Color, p.Type, p.ID, p.Loc)
}
