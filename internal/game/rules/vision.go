package rules

import (
	"fmt"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// MaxVisionMoves bounds the moves a single piece can see: the no-op plus the 27
// destinations of a queen in the centre of an open board.
const MaxVisionMoves = 28

// Move is a candidate destination for a piece. Steps counts how many unit steps
// of Dir lead to Dest.
type Move struct {
	Dir     Direction
	Steps   int
	Dest    core.TileID
	Capture bool
}

func (m Move) String() string {
	if m.Dir == DirNil {
		return fmt.Sprintf("stay %s", m.Dest)
	}
	sep := "->"
	if m.Capture {
		sep = "x"
	}
	return fmt.Sprintf("%s(%d)%s%s", m.Dir, m.Steps, sep, m.Dest)
}

// VisionPiece is the vision of one piece: a bounded list of moves in enumeration
// order. Slots past Len are empty.
type VisionPiece struct {
	PieceID core.PieceID
	moves   [MaxVisionMoves]Move
	n       int
}

// NewVisionPiece returns an empty vision for id.
func NewVisionPiece(id core.PieceID) VisionPiece {
	return VisionPiece{PieceID: id}
}

// NewVisionPieceWithMoves returns a vision holding moves, failing if they do not fit.
func NewVisionPieceWithMoves(id core.PieceID, moves ...Move) (VisionPiece, error) {
	vp := NewVisionPiece(id)
	for _, m := range moves {
		if err := vp.add(m); err != nil {
			return VisionPiece{}, err
		}
	}
	return vp, nil
}

func (vp *VisionPiece) add(m Move) error {
	if vp.n == MaxVisionMoves {
		return fmt.Errorf("vision of piece %d exceeds %d moves: %w", vp.PieceID, MaxVisionMoves, core.ErrInvalidConfig)
	}
	vp.moves[vp.n] = m
	vp.n++
	return nil
}

// Len returns the number of moves.
func (vp VisionPiece) Len() int { return vp.n }

// Moves returns a copy of the moves in enumeration order.
func (vp VisionPiece) Moves() []Move {
	out := make([]Move, vp.n)
	copy(out, vp.moves[:vp.n])
	return out
}

// At returns the move at index i (the move-op of the command vocabulary).
func (vp VisionPiece) At(i int) (Move, bool) {
	if i < 0 || i >= vp.n {
		return Move{}, false
	}
	return vp.moves[i], true
}

// Destinations lists the destination tiles in enumeration order, including the
// no-op's own tile.
func (vp VisionPiece) Destinations() []core.TileID {
	out := make([]core.TileID, vp.n)
	for i := 0; i < vp.n; i++ {
		out[i] = vp.moves[i].Dest
	}
	return out
}

// Find returns the first real move (not the no-op) that ends on dest.
func (vp VisionPiece) Find(dest core.TileID) (Move, bool) {
	for i := 0; i < vp.n; i++ {
		if vp.moves[i].Dir != DirNil && vp.moves[i].Dest == dest {
			return vp.moves[i], true
		}
	}
	return Move{}, false
}

// Captures returns the moves that take an enemy piece.
func (vp VisionPiece) Captures() []Move {
	var out []Move
	for i := 0; i < vp.n; i++ {
		if vp.moves[i].Capture {
			out = append(out, vp.moves[i])
		}
	}
	return out
}

// Occupancy answers which piece, if any, a tile references. *core.Board satisfies
// it; game.GameState does too and additionally hides references its rosters no
// longer resolve.
type Occupancy interface {
	Occupant(id core.TileID) (core.PieceID, bool)
}

type ruleFunc func(o orientation, piece core.Piece, board Occupancy, vp *VisionPiece) error

// VisionCalculator derives candidate destinations per piece type.
type VisionCalculator struct {
	rules map[core.PieceType]ruleFunc
}

// NewVisionCalculator creates a calculator with rules for every standard piece type
func NewVisionCalculator() *VisionCalculator {
	return &VisionCalculator{
		rules: map[core.PieceType]ruleFunc{
			core.Pawn:   pawnVision,
			core.Rook:   slidingVision(orthogonalDirections),
			core.Knight: leapingVision(knightDirections),
			core.Bishop: slidingVision(diagonalDirections),
			core.Queen:  slidingVision(royalDirections),
			core.King:   leapingVision(royalDirections),
		},
	}
}

// HasRule reports whether vision can be computed for the piece type.
func (vc *VisionCalculator) HasRule(t core.PieceType) bool {
	_, ok := vc.rules[t]
	return ok
}

// CalculateVision returns the candidate moves of piece on board, starting with the
// no-op. Moves that would leave the king in check are not filtered. Neither the
// board nor the piece is modified.
func (vc *VisionCalculator) CalculateVision(piece core.Piece, board Occupancy) (VisionPiece, error) {
	rule, ok := vc.rules[piece.Type]
	if !ok {
		return VisionPiece{}, fmt.Errorf("piece %d of type %s: %w", piece.ID, piece.Type, core.ErrRuleUnavailable)
	}
	o, err := newOrientation(piece)
	if err != nil {
		return VisionPiece{}, err
	}

	vp := NewVisionPiece(piece.ID)
	if err := vp.add(Move{Dir: DirNil, Dest: piece.Loc}); err != nil {
		return VisionPiece{}, err
	}
	if err := rule(o, piece, board, &vp); err != nil {
		return VisionPiece{}, err
	}
	return vp, nil
}

// orientation maps the normalized frame, where forward is +rank, onto the board.
// Black pieces are viewed through MirrorIndex.
type orientation struct {
	color  core.Color
	origin core.Coordinate
}

func newOrientation(piece core.Piece) (orientation, error) {
	loc := piece.Loc
	if piece.Color == core.Black {
		m, err := core.MirrorIndex(loc)
		if err != nil {
			return orientation{}, err
		}
		loc = m
	}
	origin, err := core.IndexToCoord(loc)
	if err != nil {
		return orientation{}, err
	}
	return orientation{color: piece.Color, origin: origin}, nil
}

// resolve returns the board tile reached by steps unit moves in dir, or false when
// it falls off the board.
func (o orientation) resolve(dir Direction, steps int) (core.TileID, bool) {
	v := directionVectors[dir]
	target := o.origin.Offset(v.df*steps, v.dr*steps)
	if !target.IsValid() {
		return 0, false
	}
	id, err := core.CoordToIndex(target)
	if err != nil {
		return 0, false
	}
	if o.color == core.Black {
		if id, err = core.MirrorIndex(id); err != nil {
			return 0, false
		}
	}
	return id, true
}

type occupancyKind int

const (
	occEmpty occupancyKind = iota
	occAlly
	occEnemy
)

// classify derives occupancy from the occupant id's sign. An id outside both color
// ranges reads as an empty tile.
func classify(board Occupancy, id core.TileID, mover core.Color) occupancyKind {
	occ, ok := board.Occupant(id)
	if !ok {
		return occEmpty
	}
	color, valid := occ.Color()
	switch {
	case !valid:
		return occEmpty
	case color == mover:
		return occAlly
	default:
		return occEnemy
	}
}

func pawnVision(o orientation, piece core.Piece, board Occupancy, vp *VisionPiece) error {
	maxSteps := 1
	if !piece.HasMoved() {
		maxSteps = 2
	}
	for steps := 1; steps <= maxSteps; steps++ {
		dest, ok := o.resolve(DirForward, steps)
		if !ok || classify(board, dest, o.color) != occEmpty {
			break
		}
		if err := vp.add(Move{Dir: DirForward, Steps: steps, Dest: dest}); err != nil {
			return err
		}
	}
	for _, dir := range []Direction{DirForwardLeft, DirForwardRight} {
		dest, ok := o.resolve(dir, 1)
		if !ok || classify(board, dest, o.color) != occEnemy {
			continue
		}
		if err := vp.add(Move{Dir: dir, Steps: 1, Dest: dest, Capture: true}); err != nil {
			return err
		}
	}
	return nil
}

// slidingVision extends each ray until it leaves the board or meets a piece. An
// enemy is the last stop of its ray; an ally blocks its own tile.
func slidingVision(dirs []Direction) ruleFunc {
	return func(o orientation, _ core.Piece, board Occupancy, vp *VisionPiece) error {
		for _, dir := range dirs {
			for steps := 1; steps < core.BoardSize; steps++ {
				dest, ok := o.resolve(dir, steps)
				if !ok {
					break
				}
				kind := classify(board, dest, o.color)
				if kind == occAlly {
					break
				}
				if err := vp.add(Move{Dir: dir, Steps: steps, Dest: dest, Capture: kind == occEnemy}); err != nil {
					return err
				}
				if kind == occEnemy {
					break
				}
			}
		}
		return nil
	}
}

// leapingVision takes one step per direction, ignoring anything in between.
func leapingVision(dirs []Direction) ruleFunc {
	return func(o orientation, _ core.Piece, board Occupancy, vp *VisionPiece) error {
		for _, dir := range dirs {
			dest, ok := o.resolve(dir, 1)
			if !ok {
				continue
			}
			kind := classify(board, dest, o.color)
			if kind == occAlly {
				continue
			}
			if err := vp.add(Move{Dir: dir, Steps: 1, Dest: dest, Capture: kind == occEnemy}); err != nil {
				return err
			}
		}
		return nil
	}
}
