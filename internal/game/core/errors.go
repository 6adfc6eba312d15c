package core

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of these so callers
// can branch on the class with errors.Is.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrRuleUnavailable = errors.New("movement rule not available")
	ErrValidation      = errors.New("validation failed")
	ErrIllegalMove     = errors.New("illegal move")
)

var (
	ErrTileOccupied      = fmt.Errorf("%w: tile occupied", ErrConflict)
	ErrOwnershipMismatch = fmt.Errorf("%w: piece color does not match roster", ErrConflict)
	ErrGameExists        = fmt.Errorf("%w: game id already in use", ErrConflict)
	ErrCapacity          = fmt.Errorf("%w: session capacity reached", ErrConflict)

	ErrGameNotFound  = fmt.Errorf("%w: game", ErrNotFound)
	ErrPieceNotFound = fmt.Errorf("%w: piece", ErrNotFound)
	ErrTileEmpty     = fmt.Errorf("%w: no piece on tile", ErrNotFound)

	ErrInvalidCoordinates       = fmt.Errorf("%w: coordinates out of range", ErrValidation)
	ErrInvalidPieceID           = fmt.Errorf("%w: piece id does not match color", ErrValidation)
	ErrClockWithoutActivePlayer = fmt.Errorf("%w: clocks supplied without an active player", ErrValidation)
	ErrInconsistentBoard        = fmt.Errorf("%w: board does not match history", ErrValidation)

	ErrNotYourTurn   = fmt.Errorf("%w: not your turn", ErrIllegalMove)
	ErrGameOver      = fmt.Errorf("%w: game is over", ErrIllegalMove)
	ErrUnknownMoveOp = fmt.Errorf("%w: move not in vision", ErrIllegalMove)
	ErrCannotPromote = fmt.Errorf("%w: piece cannot promote", ErrIllegalMove)
	ErrKingExposed   = fmt.Errorf("%w: move leaves king in check", ErrIllegalMove)
)

// WrapActionError adds the action's description to err. A nil err stays nil.
func WrapActionError(action Action, err error) error {
	if err == nil {
		return nil
	}
	if action == nil {
		return fmt.Errorf("action: %w", err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// WrapGameError adds the game id and operation name to err.
func WrapGameError(gameID uint64, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("game %d %s: %w", gameID, op, err)
}
