// Package notation converts positions to and from Forsyth-Edwards Notation and
// cross-checks vision against an independent legal move generator.
package notation

import (
	"fmt"
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// StartPosition is the FEN of the standard setup. Castling rights are not tracked.
const StartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

var pieceLetters = [...]byte{'p', 'r', 'n', 'b', 'q', 'k'}

// Letter returns the FEN letter of a piece: upper case for white.
func Letter(t core.PieceType, c core.Color) byte {
	if int(t) >= len(pieceLetters) {
		return '?'
	}
	l := pieceLetters[t]
	if c == core.White {
		l -= 'a' - 'A'
	}
	return l
}

// ToFEN describes the position with the side to move taken from the active player,
// or their opponent once the active player has moved, and white when none is set. Castling and en passant are always "-", the halfmove
// clock is 0 and the fullmove number counts black moves in the history.
func ToFEN(gs *game.GameState) string {
	side := core.White
	if gs.Active != nil {
		side = gs.Active.Color()
		// a move played but not yet handed over still passes the move
		if gs.History.MovedThisTurn() {
			side = side.Opponent()
		}
	}
	return toFEN(gs, side)
}

func toFEN(gs *game.GameState, side core.Color) string {
	var sb strings.Builder
	for rank := core.BoardSize - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < core.BoardSize; file++ {
			id, _ := core.CoordToIndex(core.NewCoordinate(file, rank))
			piece, ok := gs.Resolve(id)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(Letter(piece.Type, piece.Color))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	toMove := 'w'
	if side == core.Black {
		toMove = 'b'
	}
	fmt.Fprintf(&sb, " %c - - 0 %d", toMove, fullMoves(gs.History))
	return sb.String()
}

func fullMoves(h game.History) int {
	n := 1
	for _, a := range h.Actions() {
		if m, ok := a.(core.MoveAction); ok && m.Piece < 0 {
			n++
		}
	}
	return n
}

// ParseFEN builds a game from a FEN position. Pieces are numbered like the
// standard setup: white from a1 upwards, black from h8 downwards, so the start
// position gets the standard ids. Pawns away from their home rank count as moved.
// Placements and the side to move are recorded in the history.
func ParseFEN(label, fen string) (*game.GameState, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 || strings.Count(fields[0], "/") != core.BoardSize-1 {
		return nil, fmt.Errorf("%w: malformed FEN %q", core.ErrValidation, fen)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: side to move %q", core.ErrValidation, fields[1])
	}
	board, err := parseBoard(fen)
	if err != nil {
		return nil, err
	}

	gs := game.NewGameState(label)
	for _, side := range []struct {
		color core.Color
		bb    *dragontoothmg.Bitboards
	}{{core.White, &board.White}, {core.Black, &board.Black}} {
		pieces := fromBitboards(side.color, side.bb)
		if len(pieces) > core.MaxPiecesPerSide {
			return nil, fmt.Errorf("%w: %s has %d pieces", core.ErrValidation, side.color, len(pieces))
		}
		for _, p := range pieces {
			if err := game.PlacePiece(gs.Board, p.Loc, p, gs.Roster(p.Color)); err != nil {
				return nil, fmt.Errorf("FEN %q: %w", fen, err)
			}
			gs.History.Append(core.PlaceAction{Piece: p})
		}
	}

	active := core.PlayerOne
	if !board.Wtomove {
		active = core.PlayerTwo
	}
	gs.Active = &active
	gs.History.Append(core.SetActivePlayerAction{Player: active})
	return gs, nil
}

// parseBoard guards the generator's parser, which panics on input it cannot read.
func parseBoard(fen string) (b dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: unreadable FEN %q: %v", core.ErrValidation, fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

func fromBitboards(c core.Color, bb *dragontoothmg.Bitboards) []core.Piece {
	types := map[core.TileID]core.PieceType{}
	for _, set := range []struct {
		t    core.PieceType
		mask uint64
	}{
		{core.Pawn, bb.Pawns}, {core.Rook, bb.Rooks}, {core.Knight, bb.Knights},
		{core.Bishop, bb.Bishops}, {core.Queen, bb.Queens}, {core.King, bb.Kings},
	} {
		for m := set.mask; m != 0; m &= m - 1 {
			types[core.TileID(bits.TrailingZeros64(m))] = set.t
		}
	}

	squares := make([]core.TileID, 0, len(types))
	for sq := range types {
		squares = append(squares, sq)
	}
	sort.Slice(squares, func(i, j int) bool {
		if c == core.Black {
			return squares[i] > squares[j]
		}
		return squares[i] < squares[j]
	})

	homeRank := 1
	if c == core.Black {
		homeRank = core.BoardSize - 2
	}
	pieces := make([]core.Piece, 0, len(squares))
	for i, sq := range squares {
		id := core.PieceID(i + 1)
		if c == core.Black {
			id = -id
		}
		p := core.Piece{ID: id, Color: c, Type: types[sq], Loc: sq}
		if coord, _ := core.IndexToCoord(sq); p.Type == core.Pawn && coord.Rank != homeRank {
			p.Moves = 1
		}
		pieces = append(pieces, p)
	}
	return pieces
}

// ReferenceDestinations returns the fully legal destinations of a piece, as if its
// side were to move: moves that leave the own king attacked are excluded. Both
// kings must be on the board.
func ReferenceDestinations(gs *game.GameState, id core.PieceID) ([]core.TileID, error) {
	piece, ok := gs.FindPiece(id)
	if !ok {
		return nil, fmt.Errorf("piece %d: %w", id, core.ErrPieceNotFound)
	}
	if !gs.P1.HasKing() || !gs.P2.HasKing() {
		return nil, fmt.Errorf("%w: reference generation needs both kings", core.ErrRuleUnavailable)
	}

	board, err := parseBoard(toFEN(gs, piece.Color))
	if err != nil {
		return nil, err
	}
	seen := make(map[core.TileID]bool)
	var out []core.TileID
	for _, m := range board.GenerateLegalMoves() {
		to := core.TileID(m.To())
		if core.TileID(m.From()) != piece.Loc || seen[to] {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
