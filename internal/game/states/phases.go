package states

import "fmt"

// GamePhase represents the current phase of a game
type GamePhase int

const (
	// PhaseIdle - created, no move applied yet
	PhaseIdle GamePhase = iota

	// PhaseRunning - at least one move applied
	PhaseRunning

	// PhaseEnded - finished by forfeit or a captured king
	PhaseEnded
)

// String returns the string representation of a GamePhase
func (p GamePhase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	case PhaseEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase represents a terminal state
func (p GamePhase) IsTerminal() bool {
	return p == PhaseEnded
}

// CanReceiveActions returns true if players may still submit moves
func (p GamePhase) CanReceiveActions() bool {
	return p == PhaseIdle || p == PhaseRunning
}

// AllowedTransitions returns the valid phases this phase can transition to.
// A game may end before its first move (forfeit).
func (p GamePhase) AllowedTransitions() []GamePhase {
	switch p {
	case PhaseIdle:
		return []GamePhase{PhaseRunning, PhaseEnded}
	case PhaseRunning:
		return []GamePhase{PhaseEnded}
	default:
		return []GamePhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a GamePhase
func ParsePhase(s string) (GamePhase, error) {
	switch s {
	case "Idle":
		return PhaseIdle, nil
	case "Running":
		return PhaseRunning, nil
	case "Ended":
		return PhaseEnded, nil
	default:
		return PhaseIdle, fmt.Errorf("unknown phase %q", s)
	}
}

// PhaseFor derives the phase from a game's Started and Finished flags.
func PhaseFor(started, finished bool) GamePhase {
	switch {
	case finished:
		return PhaseEnded
	case started:
		return PhaseRunning
	default:
		return PhaseIdle
	}
}
