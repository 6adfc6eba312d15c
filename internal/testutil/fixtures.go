package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// StandardGame returns an untimed game with the standard 32-piece setup.
func StandardGame(t testing.TB) *game.GameState {
	t.Helper()
	gs, err := game.NewStandardGame("test", nil)
	require.NoError(t, err)
	return gs
}

// Piece builds a piece on an algebraic square, failing the test on bad input.
func Piece(t testing.TB, ty core.PieceType, color core.Color, square string, id core.PieceID) core.Piece {
	t.Helper()
	loc, err := core.ParseSquare(square)
	require.NoError(t, err)
	p, err := core.NewPiece(ty, color, loc, id)
	require.NoError(t, err)
	return p
}

// Position builds a game holding exactly pieces with white to move. Every piece is
// recorded as a placement, so the history replays to the same board.
func Position(t testing.TB, label string, pieces ...core.Piece) *game.GameState {
	t.Helper()
	gs := game.NewGameState(label)
	for _, p := range pieces {
		require.NoError(t, game.PlacePiece(gs.Board, p.Loc, p, gs.Roster(p.Color)))
		gs.History.Append(core.PlaceAction{Piece: p})
	}
	white := core.PlayerOne
	gs.Active = &white
	gs.History.Append(core.SetActivePlayerAction{Player: white})
	require.NoError(t, gs.Validate())
	return gs
}

// KingsOnly is a Position with the kings on e1 (id 5) and e8 (id -4) plus extra.
func KingsOnly(t testing.TB, extra ...core.Piece) *game.GameState {
	t.Helper()
	pieces := append([]core.Piece{
		Piece(t, core.King, core.White, "e1", 5),
		Piece(t, core.King, core.Black, "e8", -4),
	}, extra...)
	return Position(t, "kings", pieces...)
}
