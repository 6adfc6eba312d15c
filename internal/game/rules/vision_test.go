package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

type placed struct {
	id  core.PieceID
	loc core.TileID
}

func boardWith(pieces ...placed) *core.Board {
	b := core.MustNewBoard()
	for _, p := range pieces {
		b.Set(p.loc, p.id)
	}
	return b
}

func mustPiece(t *testing.T, ty core.PieceType, color core.Color, loc core.TileID, id core.PieceID) core.Piece {
	t.Helper()
	p, err := core.NewPiece(ty, color, loc, id)
	require.NoError(t, err)
	return p
}

func TestCalculateVision_PawnsFromSetup(t *testing.T) {
	vc := NewVisionCalculator()

	tests := []struct {
		name     string
		piece    func(t *testing.T) core.Piece
		expected []core.TileID
	}{
		{
			name:     "white e-pawn",
			piece:    func(t *testing.T) core.Piece { return mustPiece(t, core.Pawn, core.White, core.E2, 13) },
			expected: []core.TileID{core.E2, core.E3, core.E4},
		},
		{
			name:     "white a-pawn",
			piece:    func(t *testing.T) core.Piece { return mustPiece(t, core.Pawn, core.White, core.A2, 9) },
			expected: []core.TileID{core.A2, core.A3, core.A4},
		},
		{
			name:     "black e-pawn moves toward rank one",
			piece:    func(t *testing.T) core.Piece { return mustPiece(t, core.Pawn, core.Black, core.E7, -13) },
			expected: []core.TileID{core.E7, core.E6, core.E5},
		},
		{
			name:     "black h-pawn",
			piece:    func(t *testing.T) core.Piece { return mustPiece(t, core.Pawn, core.Black, core.H7, -16) },
			expected: []core.TileID{core.H7, core.H6, core.H5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.piece(t)
			board := boardWith(placed{p.ID, p.Loc})

			vp, err := vc.CalculateVision(p, board)
			require.NoError(t, err)
			assert.Equal(t, p.ID, vp.PieceID)
			assert.Equal(t, tt.expected, vp.Destinations())
			assert.Empty(t, vp.Captures())
		})
	}
}

func TestCalculateVision_NoOpComesFirst(t *testing.T) {
	vc := NewVisionCalculator()
	for _, ty := range []core.PieceType{core.Pawn, core.Rook, core.Knight, core.Bishop, core.Queen, core.King} {
		p := mustPiece(t, ty, core.White, core.D4, 4)
		vp, err := vc.CalculateVision(p, boardWith(placed{p.ID, p.Loc}))
		require.NoError(t, err, ty.String())

		first, ok := vp.At(0)
		require.True(t, ok)
		assert.Equal(t, DirNil, first.Dir, ty.String())
		assert.Equal(t, core.D4, first.Dest, ty.String())
	}
}

func TestCalculateVision_PawnBlocked(t *testing.T) {
	vc := NewVisionCalculator()
	pawn := mustPiece(t, core.Pawn, core.White, core.E2, 13)

	t.Run("piece directly ahead", func(t *testing.T) {
		board := boardWith(placed{13, core.E2}, placed{-13, core.E3})
		vp, err := vc.CalculateVision(pawn, board)
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.E2}, vp.Destinations())
	})

	t.Run("piece two ahead", func(t *testing.T) {
		board := boardWith(placed{13, core.E2}, placed{-13, core.E4})
		vp, err := vc.CalculateVision(pawn, board)
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.E2, core.E3}, vp.Destinations())
	})

	t.Run("moved pawn takes single steps", func(t *testing.T) {
		moved := pawn
		moved.UpdateLoc(core.E3)
		vp, err := vc.CalculateVision(moved, boardWith(placed{13, core.E3}))
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.E3, core.E4}, vp.Destinations())
	})

	t.Run("pawn on its last rank has nowhere to go", func(t *testing.T) {
		last := mustPiece(t, core.Pawn, core.White, core.E8, 13)
		vp, err := vc.CalculateVision(last, boardWith(placed{13, core.E8}))
		require.NoError(t, err)
		assert.Equal(t, 1, vp.Len())
	})
}

func TestCalculateVision_PawnCaptures(t *testing.T) {
	vc := NewVisionCalculator()

	t.Run("white captures diagonally forward", func(t *testing.T) {
		pawn := mustPiece(t, core.Pawn, core.White, core.E4, 13)
		pawn.Moves = 2
		board := boardWith(
			placed{13, core.E4},
			placed{-12, core.D5},
			placed{-14, core.F5},
			placed{12, core.F3},
		)
		vp, err := vc.CalculateVision(pawn, board)
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.E4, core.E5, core.D5, core.F5}, vp.Destinations())

		caps := vp.Captures()
		require.Len(t, caps, 2)
		assert.Equal(t, DirForwardLeft, caps[0].Dir)
		assert.Equal(t, DirForwardRight, caps[1].Dir)
	})

	t.Run("allies on the diagonals are not targets", func(t *testing.T) {
		pawn := mustPiece(t, core.Pawn, core.White, core.E2, 13)
		board := boardWith(placed{13, core.E2}, placed{12, core.D3}, placed{14, core.F3})
		vp, err := vc.CalculateVision(pawn, board)
		require.NoError(t, err)
		assert.Empty(t, vp.Captures())
	})

	t.Run("black captures toward rank one", func(t *testing.T) {
		pawn := mustPiece(t, core.Pawn, core.Black, core.D5, -12)
		pawn.Moves = 1
		board := boardWith(placed{-12, core.D5}, placed{13, core.E4}, placed{11, core.D4})
		vp, err := vc.CalculateVision(pawn, board)
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.D5, core.E4}, vp.Destinations())
	})
}

func TestCalculateVision_Rook(t *testing.T) {
	vc := NewVisionCalculator()

	t.Run("corner of an empty board", func(t *testing.T) {
		rook := mustPiece(t, core.Rook, core.White, core.A1, 1)
		vp, err := vc.CalculateVision(rook, boardWith(placed{1, core.A1}))
		require.NoError(t, err)
		assert.Equal(t, 15, vp.Len())

		dests := vp.Destinations()
		assert.Equal(t, core.A2, dests[1], "forward ray is enumerated first")
		assert.Contains(t, dests, core.A8)
		assert.Contains(t, dests, core.H1)
	})

	t.Run("rays stop at allies and on enemies", func(t *testing.T) {
		rook := mustPiece(t, core.Rook, core.White, core.D4, 1)
		board := boardWith(
			placed{1, core.D4},
			placed{2, core.D6},  // ally two ahead
			placed{-3, core.F4}, // enemy two right
		)
		vp, err := vc.CalculateVision(rook, board)
		require.NoError(t, err)

		dests := vp.Destinations()
		assert.Contains(t, dests, core.D5)
		assert.NotContains(t, dests, core.D6)
		assert.NotContains(t, dests, core.D7)
		assert.Contains(t, dests, core.F4)
		assert.NotContains(t, dests, core.G4)

		m, ok := vp.Find(core.F4)
		require.True(t, ok)
		assert.True(t, m.Capture)
		assert.Equal(t, DirRight, m.Dir)
		assert.Equal(t, 2, m.Steps)
	})
}

func TestCalculateVision_Knight(t *testing.T) {
	vc := NewVisionCalculator()

	tests := []struct {
		name     string
		loc      core.TileID
		expected int
	}{
		{"corner", core.A1, 3},
		{"edge", core.A4, 5},
		{"centre", core.D4, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			knight := mustPiece(t, core.Knight, core.White, tt.loc, 2)
			vp, err := vc.CalculateVision(knight, boardWith(placed{2, tt.loc}))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vp.Len())
		})
	}

	t.Run("jumps over pieces and skips allies", func(t *testing.T) {
		knight := mustPiece(t, core.Knight, core.White, core.B1, 2)
		board := boardWith(
			placed{2, core.B1},
			placed{9, core.A2}, placed{10, core.B2}, placed{11, core.C2},
			placed{4, core.D2},
		)
		vp, err := vc.CalculateVision(knight, board)
		require.NoError(t, err)
		assert.Equal(t, []core.TileID{core.B1, core.C3, core.A3}, vp.Destinations())
	})
}

func TestCalculateVision_KingAndBishop(t *testing.T) {
	vc := NewVisionCalculator()

	king := mustPiece(t, core.King, core.Black, core.E8, -5)
	vp, err := vc.CalculateVision(king, boardWith(placed{-5, core.E8}, placed{-4, core.D8}, placed{3, core.F7}))
	require.NoError(t, err)
	dests := vp.Destinations()
	assert.ElementsMatch(t, []core.TileID{core.E8, core.E7, core.F8, core.F7, core.D7}, dests)
	m, ok := vp.Find(core.F7)
	require.True(t, ok)
	assert.True(t, m.Capture)

	bishop := mustPiece(t, core.Bishop, core.White, core.C1, 3)
	vp, err = vc.CalculateVision(bishop, boardWith(placed{3, core.C1}))
	require.NoError(t, err)
	assert.Equal(t, 8, vp.Len())
	assert.Contains(t, vp.Destinations(), core.H6)
	assert.Contains(t, vp.Destinations(), core.A3)
}

func TestCalculateVision_QueenFillsCapacity(t *testing.T) {
	vc := NewVisionCalculator()
	for _, loc := range []core.TileID{core.D4, core.E5} {
		queen := mustPiece(t, core.Queen, core.White, loc, 4)
		vp, err := vc.CalculateVision(queen, boardWith(placed{4, loc}))
		require.NoError(t, err)
		assert.Equal(t, MaxVisionMoves, vp.Len(), "queen on %s", loc)
	}
}

func TestCalculateVision_BlackMirrorsWhite(t *testing.T) {
	vc := NewVisionCalculator()
	for _, ty := range []core.PieceType{core.Pawn, core.Rook, core.Knight, core.Bishop, core.Queen, core.King} {
		for loc := core.TileID(0); loc < core.TileCount; loc += 7 {
			mirrored, err := core.MirrorIndex(loc)
			require.NoError(t, err)

			white := mustPiece(t, ty, core.White, loc, 7)
			black := mustPiece(t, ty, core.Black, mirrored, -7)
			wv, err := vc.CalculateVision(white, boardWith(placed{7, loc}))
			require.NoError(t, err)
			bv, err := vc.CalculateVision(black, boardWith(placed{-7, mirrored}))
			require.NoError(t, err)

			require.Equal(t, wv.Len(), bv.Len(), "%s on %s", ty, loc)
			for i, m := range wv.Moves() {
				bm, _ := bv.At(i)
				want, _ := core.MirrorIndex(m.Dest)
				assert.Equal(t, m.Dir, bm.Dir)
				assert.Equal(t, want, bm.Dest)
			}
		}
	}
}

func TestCalculateVision_DoesNotModifyInputs(t *testing.T) {
	vc := NewVisionCalculator()
	queen := mustPiece(t, core.Queen, core.White, core.D1, 4)
	board := boardWith(placed{4, core.D1}, placed{-4, core.D8}, placed{13, core.E2})
	before := board.Clone()
	pieceBefore := queen

	first, err := vc.CalculateVision(queen, board)
	require.NoError(t, err)
	second, err := vc.CalculateVision(queen, board)
	require.NoError(t, err)

	assert.True(t, board.Equal(before))
	assert.Equal(t, pieceBefore, queen)
	assert.Equal(t, first.Moves(), second.Moves())
}

func TestCalculateVision_UnknownType(t *testing.T) {
	vc := NewVisionCalculator()
	p := core.Piece{ID: 1, Color: core.White, Type: core.PieceType(42), Loc: core.A1}

	_, err := vc.CalculateVision(p, core.MustNewBoard())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRuleUnavailable)
	assert.False(t, vc.HasRule(core.PieceType(42)))
	assert.True(t, vc.HasRule(core.Queen))
}

func TestVisionPiece_Bounds(t *testing.T) {
	moves := make([]Move, MaxVisionMoves+1)
	_, err := NewVisionPieceWithMoves(1, moves...)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	vp, err := NewVisionPieceWithMoves(1, Move{Dest: core.A1}, Move{Dir: DirForward, Steps: 1, Dest: core.A2})
	require.NoError(t, err)
	assert.Equal(t, 2, vp.Len())

	_, ok := vp.At(2)
	assert.False(t, ok)
	_, ok = vp.At(-1)
	assert.False(t, ok)

	_, ok = vp.Find(core.A1)
	assert.False(t, ok, "the no-op is not a move to its own tile")
}

func TestMove_String(t *testing.T) {
	assert.Equal(t, "stay e2", Move{Dest: core.E2}.String())
	assert.Equal(t, "forward(2)->e4", Move{Dir: DirForward, Steps: 2, Dest: core.E4}.String())
	assert.Equal(t, "forward_left(1)xd5", Move{Dir: DirForwardLeft, Steps: 1, Dest: core.D5, Capture: true}.String())
}
