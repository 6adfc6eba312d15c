package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

type setupEntry struct {
	Type core.PieceType
	Loc  core.TileID
	ID   core.PieceID
}

var backRank = [core.BoardSize]core.PieceType{
	core.Rook, core.Knight, core.Bishop, core.Queen, core.King, core.Bishop, core.Knight, core.Rook,
}

// standardTable lists the setup of one color in placement order. White numbers its
// back rank 1..8 from the a-file and its pawns 9..16; black numbers its pawns -16..-9
// and its back rank -8..-1, both from the a-file.
func standardTable(c core.Color) []setupEntry {
	entries := make([]setupEntry, 0, core.MaxPiecesPerSide)
	if c == core.White {
		for f := 0; f < core.BoardSize; f++ {
			entries = append(entries, setupEntry{backRank[f], core.TileID(f), core.PieceID(f + 1)})
		}
		for f := 0; f < core.BoardSize; f++ {
			entries = append(entries, setupEntry{core.Pawn, core.A2 + core.TileID(f), core.PieceID(f + 9)})
		}
		return entries
	}
	for f := 0; f < core.BoardSize; f++ {
		entries = append(entries, setupEntry{core.Pawn, core.A7 + core.TileID(f), core.PieceID(-16 + f)})
	}
	for f := 0; f < core.BoardSize; f++ {
		entries = append(entries, setupEntry{backRank[f], core.A8 + core.TileID(f), core.PieceID(-8 + f)})
	}
	return entries
}

// StandardSetup returns the 16 starting pieces of a color in placement order.
func StandardSetup(c core.Color) []core.Piece {
	table := standardTable(c)
	pieces := make([]core.Piece, 0, len(table))
	for _, e := range table {
		p, err := core.NewPiece(e.Type, c, e.Loc, e.ID)
		if err != nil {
			panic(fmt.Sprintf("standard setup table: %v", err))
		}
		pieces = append(pieces, p)
	}
	return pieces
}

// NewStandardGame builds the 32-piece starting position with white to move. Every
// placement and the initial hand-over are recorded, so replaying the history from an
// empty state reproduces the board. An empty label gets a random one; a nil clock
// makes the game untimed.
func NewStandardGame(label string, clock *uint32) (*GameState, error) {
	if label == "" {
		label = uuid.NewString()
	}
	gs := NewGameState(label)

	for _, c := range []core.Color{core.White, core.Black} {
		for _, piece := range StandardSetup(c) {
			if err := PlacePiece(gs.Board, piece.Loc, piece, gs.Roster(c)); err != nil {
				return nil, fmt.Errorf("standard setup: %w", err)
			}
			gs.History.Append(core.PlaceAction{Piece: piece})
		}
	}

	white := core.PlayerOne
	gs.Active = &white
	gs.History.Append(core.SetActivePlayerAction{Player: white})
	if clock != nil {
		gs.P1Clock = clonePtr(clock)
		gs.P2Clock = clonePtr(clock)
	}
	return gs, nil
}
