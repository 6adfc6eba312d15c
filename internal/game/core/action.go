package core

import "fmt"

// ActionKind tags the variants of Action.
type ActionKind int

const (
	ActionNil ActionKind = iota
	ActionRepairRoster
	ActionSetActivePlayer
	ActionMove
	ActionPlace
	ActionPromote
	ActionForfeit
)

func (k ActionKind) String() string {
	switch k {
	case ActionNil:
		return "nil"
	case ActionRepairRoster:
		return "repair_roster"
	case ActionSetActivePlayer:
		return "set_active_player"
	case ActionMove:
		return "move"
	case ActionPlace:
		return "place"
	case ActionPromote:
		return "promote"
	case ActionForfeit:
		return "forfeit"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is a game-altering event recorded in a history.
type Action interface {
	Kind() ActionKind
	String() string
}

// NilAction changes nothing.
type NilAction struct{}

func (NilAction) Kind() ActionKind { return ActionNil }
func (NilAction) String() string   { return "nil" }

// RepairRosterAction re-links board references from roster locations. Histories
// rebuilt from an external source start with one.
type RepairRosterAction struct{}

func (RepairRosterAction) Kind() ActionKind { return ActionRepairRoster }
func (RepairRosterAction) String() string   { return "repair roster references" }

// SetActivePlayerAction hands the turn to Player.
type SetActivePlayerAction struct {
	Player PlayerID
}

func (SetActivePlayerAction) Kind() ActionKind { return ActionSetActivePlayer }
func (a SetActivePlayerAction) String() string {
	return fmt.Sprintf("set active player %s", a.Player)
}

// MoveAction relocates Piece from From to To. Capture is true when To held an enemy
// piece. Promotion is only read when a pawn lands on its promotion zone; nil means
// queen.
type MoveAction struct {
	Piece     PieceID
	From      TileID
	To        TileID
	Capture   bool
	Promotion *PieceType
}

func (MoveAction) Kind() ActionKind { return ActionMove }
func (a MoveAction) String() string {
	sep := "->"
	if a.Capture {
		sep = "x"
	}
	s := fmt.Sprintf("move %d %s%s%s", a.Piece, a.From, sep, a.To)
	if a.Promotion != nil {
		s += "=" + a.Promotion.String()
	}
	return s
}

// PlaceAction puts a new piece on the board during setup.
type PlaceAction struct {
	Piece Piece
}

func (PlaceAction) Kind() ActionKind { return ActionPlace }
func (a PlaceAction) String() string {
	return fmt.Sprintf("place %s", a.Piece)
}

// PromoteAction changes a pawn standing on its promotion zone into To.
type PromoteAction struct {
	Piece PieceID
	To    PieceType
}

func (PromoteAction) Kind() ActionKind { return ActionPromote }
func (a PromoteAction) String() string {
	return fmt.Sprintf("promote %d to %s", a.Piece, a.To)
}

// ForfeitAction ends the game in favour of the other player.
type ForfeitAction struct {
	Player PlayerID
}

func (ForfeitAction) Kind() ActionKind { return ActionForfeit }
func (a ForfeitAction) String() string {
	return fmt.Sprintf("forfeit by %s", a.Player)
}
