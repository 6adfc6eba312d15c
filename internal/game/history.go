package game

import (
	"reflect"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// History is the append-only log of game-altering actions, labelled by ID.
type History struct {
	ID      string
	actions []core.Action
}

// NewHistory returns an empty history.
func NewHistory(id string) History {
	return History{ID: id}
}

// Reconstruct builds a history from an external log, starting it with a roster
// repair unless the log already does.
func Reconstruct(id string, actions []core.Action) History {
	h := History{ID: id, actions: make([]core.Action, 0, len(actions)+1)}
	if len(actions) == 0 || actions[0] == nil || actions[0].Kind() != core.ActionRepairRoster {
		h.actions = append(h.actions, core.RepairRosterAction{})
	}
	for _, a := range actions {
		if a == nil {
			a = core.NilAction{}
		}
		h.actions = append(h.actions, a)
	}
	return h
}

// Append records an action.
func (h *History) Append(a core.Action) {
	h.actions = append(h.actions, a)
}

// Actions returns a copy of the log.
func (h History) Actions() []core.Action {
	out := make([]core.Action, len(h.actions))
	copy(out, h.actions)
	return out
}

// Len returns the number of recorded actions.
func (h History) Len() int { return len(h.actions) }

// Last returns the most recent action.
func (h History) Last() (core.Action, bool) {
	if len(h.actions) == 0 {
		return nil, false
	}
	return h.actions[len(h.actions)-1], true
}

// Clone returns an independent copy. Actions are immutable values, so the copy is
// shallow per element.
func (h History) Clone() History {
	return History{ID: h.ID, actions: h.Actions()}
}

// Equal compares labels and actions.
func (h History) Equal(other History) bool {
	if h.ID != other.ID || len(h.actions) != len(other.actions) {
		return false
	}
	for i := range h.actions {
		if !reflect.DeepEqual(h.actions[i], other.actions[i]) {
			return false
		}
	}
	return true
}

// MovedThisTurn reports whether a move was recorded after the last hand-over of the
// turn.
func (h History) MovedThisTurn() bool {
	for i := len(h.actions) - 1; i >= 0; i-- {
		switch h.actions[i].Kind() {
		case core.ActionMove:
			return true
		case core.ActionSetActivePlayer:
			return false
		}
	}
	return false
}
