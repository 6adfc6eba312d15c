package game

import (
	"fmt"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// PlayerData is one side's roster. It is the sole owner of its pieces; boards and
// visions only refer to them by id. Pieces keep setup order.
type PlayerData struct {
	Color     core.Color
	Name      string
	forfeited bool
	pieces    []core.Piece
}

// NewPlayerData creates an empty roster.
func NewPlayerData(color core.Color, name string) PlayerData {
	return PlayerData{
		Color:  color,
		Name:   name,
		pieces: make([]core.Piece, 0, core.MaxPiecesPerSide),
	}
}

// Pieces returns a copy of the owned pieces.
func (p *PlayerData) Pieces() []core.Piece {
	out := make([]core.Piece, len(p.pieces))
	copy(out, p.pieces)
	return out
}

// Len returns the number of owned pieces.
func (p *PlayerData) Len() int { return len(p.pieces) }

func (p *PlayerData) index(id core.PieceID) int {
	for i := range p.pieces {
		if p.pieces[i].ID == id {
			return i
		}
	}
	return -1
}

// Find looks a piece up by id.
func (p *PlayerData) Find(id core.PieceID) (core.Piece, bool) {
	if i := p.index(id); i >= 0 {
		return p.pieces[i], true
	}
	return core.Piece{}, false
}

// HasKing reports whether the roster still owns a king.
func (p *PlayerData) HasKing() bool {
	for i := range p.pieces {
		if p.pieces[i].Type == core.King {
			return true
		}
	}
	return false
}

// Forfeited reports whether this side resigned.
func (p *PlayerData) Forfeited() bool { return p.forfeited }

func (p *PlayerData) add(piece core.Piece) error {
	if len(p.pieces) >= core.MaxPiecesPerSide {
		return fmt.Errorf("%w: %s roster already holds %d pieces", core.ErrConflict, p.Color, core.MaxPiecesPerSide)
	}
	if p.index(piece.ID) >= 0 {
		return fmt.Errorf("%w: piece id %d already in the %s roster", core.ErrConflict, piece.ID, p.Color)
	}
	p.pieces = append(p.pieces, piece)
	return nil
}

// remove disposes of a piece, which only happens on capture.
func (p *PlayerData) remove(id core.PieceID) (core.Piece, bool) {
	i := p.index(id)
	if i < 0 {
		return core.Piece{}, false
	}
	piece := p.pieces[i]
	p.pieces = append(p.pieces[:i], p.pieces[i+1:]...)
	return piece, true
}

func (p *PlayerData) update(piece core.Piece) bool {
	i := p.index(piece.ID)
	if i < 0 {
		return false
	}
	p.pieces[i] = piece
	return true
}

func (p PlayerData) clone() PlayerData {
	c := p
	c.pieces = make([]core.Piece, len(p.pieces), core.MaxPiecesPerSide)
	copy(c.pieces, p.pieces)
	return c
}

// PlacePiece is the only sanctioned way to populate a tile: it sets the piece's
// location, hands it to owner and installs the board reference. Every check runs
// before anything is mutated. Only the board is consulted, so any reference on idx
// counts as occupied; GameState.Place first discards references that no longer
// resolve.
func PlacePiece(board *core.Board, idx core.TileID, piece core.Piece, owner *PlayerData) error {
	tile, err := board.Tile(idx)
	if err != nil {
		return err
	}
	if !tile.IsEmpty() {
		return fmt.Errorf("place %s on %s (holds %d): %w", piece.Type, idx, tile.Occupant, core.ErrTileOccupied)
	}
	if piece.Color != owner.Color {
		return fmt.Errorf("place %s %s into the %s roster: %w", piece.Color, piece.Type, owner.Color, core.ErrOwnershipMismatch)
	}
	if c, ok := piece.ID.Color(); !ok || c != piece.Color {
		return fmt.Errorf("place %s %s with id %d: %w", piece.Color, piece.Type, piece.ID, core.ErrInvalidPieceID)
	}

	piece.Loc = idx
	if err := owner.add(piece); err != nil {
		return err
	}
	return board.Set(idx, piece.ID)
}
