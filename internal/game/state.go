package game

import (
	"fmt"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// GameState is the authoritative position of one game. Clock values are
// milliseconds remaining; nil means untimed. They are stored and reported, never
// debited.
type GameState struct {
	Started   bool
	Finished  bool
	Active    *core.PlayerID
	P1Clock   *uint32
	P2Clock   *uint32
	P1        PlayerData
	P2        PlayerData
	Board     *core.Board
	History   History
	Winner    *core.PlayerID
	EndReason string
}

// NewGameState returns an empty, untimed game with an empty history labelled id.
func NewGameState(id string) *GameState {
	return &GameState{
		P1:      NewPlayerData(core.White, core.PlayerOne.String()),
		P2:      NewPlayerData(core.Black, core.PlayerTwo.String()),
		Board:   core.MustNewBoard(),
		History: NewHistory(id),
	}
}

// Roster returns the roster of the given color.
func (gs *GameState) Roster(c core.Color) *PlayerData {
	if c == core.Black {
		return &gs.P2
	}
	return &gs.P1
}

// RosterFor returns the roster of the given player.
func (gs *GameState) RosterFor(p core.PlayerID) *PlayerData {
	return gs.Roster(p.Color())
}

// FindPiece looks up a piece by id. The id's sign selects the roster to scan.
func (gs *GameState) FindPiece(id core.PieceID) (core.Piece, bool) {
	c, ok := id.Color()
	if !ok {
		return core.Piece{}, false
	}
	return gs.Roster(c).Find(id)
}

// Resolve returns the piece standing on tile. A reference the rosters no longer
// back, or one whose piece sits elsewhere, reads as an empty tile.
func (gs *GameState) Resolve(tile core.TileID) (core.Piece, bool) {
	id, ok := gs.Board.Occupant(tile)
	if !ok {
		return core.Piece{}, false
	}
	piece, ok := gs.FindPiece(id)
	if !ok || piece.Loc != tile {
		return core.Piece{}, false
	}
	return piece, true
}

// Place puts piece on tile through PlacePiece. A reference on tile that no longer
// resolves counts as empty and is replaced; it is restored if placement fails.
func (gs *GameState) Place(tile core.TileID, piece core.Piece) error {
	stale, hasRef := gs.Board.Occupant(tile)
	if _, live := gs.Resolve(tile); !hasRef || live {
		return PlacePiece(gs.Board, tile, piece, gs.Roster(piece.Color))
	}
	if err := gs.Board.Clear(tile); err != nil {
		return err
	}
	if err := PlacePiece(gs.Board, tile, piece, gs.Roster(piece.Color)); err != nil {
		_ = gs.Board.Set(tile, stale)
		return err
	}
	return nil
}

// Occupant returns the id on tile only when it resolves.
func (gs *GameState) Occupant(tile core.TileID) (core.PieceID, bool) {
	piece, ok := gs.Resolve(tile)
	if !ok {
		return core.NoPiece, false
	}
	return piece.ID, true
}

// Clock returns the clock of player, nil when untimed.
func (gs *GameState) Clock(p core.PlayerID) *uint32 {
	if p == core.PlayerTwo {
		return gs.P2Clock
	}
	return gs.P1Clock
}

// PieceCount returns the number of pieces across both rosters.
func (gs *GameState) PieceCount() int {
	return gs.P1.Len() + gs.P2.Len()
}

// Clone returns a deep copy safe to hand to readers.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Active = clonePtr(gs.Active)
	c.Winner = clonePtr(gs.Winner)
	c.P1Clock = clonePtr(gs.P1Clock)
	c.P2Clock = clonePtr(gs.P2Clock)
	c.P1 = gs.P1.clone()
	c.P2 = gs.P2.clone()
	c.Board = gs.Board.Clone()
	c.History = gs.History.Clone()
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate checks the board/roster invariants: every occupied tile resolves to a
// piece whose location is that tile, every roster piece is referenced from its
// tile, and clocks never exist without an active player.
func (gs *GameState) Validate() error {
	if gs.Board == nil {
		return fmt.Errorf("%w: state has no board", core.ErrValidation)
	}
	if (gs.P1Clock != nil || gs.P2Clock != nil) && gs.Active == nil {
		return core.ErrClockWithoutActivePlayer
	}
	for i := range gs.Board.T {
		tile := core.TileID(i)
		id, ok := gs.Board.Occupant(tile)
		if !ok {
			continue
		}
		if _, ok := gs.Resolve(tile); !ok {
			return fmt.Errorf("%w: tile %s references piece %d which is not there", core.ErrInconsistentBoard, tile, id)
		}
	}
	for _, roster := range []*PlayerData{&gs.P1, &gs.P2} {
		for _, piece := range roster.pieces {
			if piece.Color != roster.Color {
				return fmt.Errorf("piece %d in the %s roster: %w", piece.ID, roster.Color, core.ErrOwnershipMismatch)
			}
			if id, ok := gs.Board.Occupant(piece.Loc); !ok || id != piece.ID {
				return fmt.Errorf("%w: piece %d is not referenced from %s", core.ErrInconsistentBoard, piece.ID, piece.Loc)
			}
		}
	}
	return nil
}
