package events

import (
	"time"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// Event type constants
const (
	TypeGameCreated     = "game.created"
	TypeGameEnded       = "game.ended"
	TypeGameForfeited   = "game.forfeited"
	TypePiecePlaced     = "piece.placed"
	TypeMoveApplied     = "move.applied"
	TypePieceCaptured   = "piece.captured"
	TypePiecePromoted   = "piece.promoted"
	TypePlayerActivated = "player.activated"
	TypeRosterRepaired  = "roster.repaired"
	TypeStateTransition = "state.transition"
)

func newBase(eventType, gameID string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Game:      gameID,
	}
}

// GameCreatedEvent is published when a session is set up. Setup is "standard" or
// "arbitrary".
type GameCreatedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Label    string
	Setup    string
	Pieces   int
}

// NewGameCreatedEvent creates a new GameCreatedEvent
func NewGameCreatedEvent(gameID, label, setup string, pieces int) *GameCreatedEvent {
	return &GameCreatedEvent{
		BaseEvent: newBase(TypeGameCreated, gameID),
		Label:     label,
		Setup:     setup,
		Pieces:    pieces,
	}
}

// PiecePlacedEvent is published for every placement recorded in a history.
type PiecePlacedEvent struct {
	BaseEvent
	Metadata EventMetadata
	PieceID  core.PieceID
	Piece    core.PieceType
	Color    core.Color
	Tile     core.TileID
}

// NewPiecePlacedEvent creates a new PiecePlacedEvent
func NewPiecePlacedEvent(gameID string, piece core.Piece, ply int) *PiecePlacedEvent {
	return &PiecePlacedEvent{
		BaseEvent: newBase(TypePiecePlaced, gameID),
		Metadata:  EventMetadata{Player: piece.Color.PlayerID().String(), Ply: ply},
		PieceID:   piece.ID,
		Piece:     piece.Type,
		Color:     piece.Color,
		Tile:      piece.Loc,
	}
}

// MoveAppliedEvent is published after a piece has been relocated.
type MoveAppliedEvent struct {
	BaseEvent
	Metadata EventMetadata
	PieceID  core.PieceID
	From     core.TileID
	To       core.TileID
	Capture  bool
}

// NewMoveAppliedEvent creates a new MoveAppliedEvent
func NewMoveAppliedEvent(gameID string, player core.PlayerID, move core.MoveAction, ply int) *MoveAppliedEvent {
	return &MoveAppliedEvent{
		BaseEvent: newBase(TypeMoveApplied, gameID),
		Metadata:  EventMetadata{Player: player.String(), Ply: ply},
		PieceID:   move.Piece,
		From:      move.From,
		To:        move.To,
		Capture:   move.Capture,
	}
}

// PieceCapturedEvent is published when a piece is removed from its roster.
type PieceCapturedEvent struct {
	BaseEvent
	Metadata   EventMetadata
	CapturedID core.PieceID
	Captured   core.PieceType
	CapturerID core.PieceID
	Tile       core.TileID
}

// NewPieceCapturedEvent creates a new PieceCapturedEvent
func NewPieceCapturedEvent(gameID string, captured core.Piece, by core.PieceID, ply int) *PieceCapturedEvent {
	return &PieceCapturedEvent{
		BaseEvent:  newBase(TypePieceCaptured, gameID),
		Metadata:   EventMetadata{Player: captured.Color.PlayerID().String(), Ply: ply},
		CapturedID: captured.ID,
		Captured:   captured.Type,
		CapturerID: by,
		Tile:       captured.Loc,
	}
}

// PiecePromotedEvent is published when a pawn changes type on its promotion zone.
type PiecePromotedEvent struct {
	BaseEvent
	Metadata EventMetadata
	PieceID  core.PieceID
	To       core.PieceType
	Tile     core.TileID
}

// NewPiecePromotedEvent creates a new PiecePromotedEvent
func NewPiecePromotedEvent(gameID string, piece core.Piece, ply int) *PiecePromotedEvent {
	return &PiecePromotedEvent{
		BaseEvent: newBase(TypePiecePromoted, gameID),
		Metadata:  EventMetadata{Player: piece.Color.PlayerID().String(), Ply: ply},
		PieceID:   piece.ID,
		To:        piece.Type,
		Tile:      piece.Loc,
	}
}

// PlayerActivatedEvent is published when the turn passes to a player.
type PlayerActivatedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Player   core.PlayerID
}

// NewPlayerActivatedEvent creates a new PlayerActivatedEvent
func NewPlayerActivatedEvent(gameID string, player core.PlayerID, ply int) *PlayerActivatedEvent {
	return &PlayerActivatedEvent{
		BaseEvent: newBase(TypePlayerActivated, gameID),
		Metadata:  EventMetadata{Player: player.String(), Ply: ply},
		Player:    player,
	}
}

// RosterRepairedEvent is published after board references were rebuilt from roster
// locations. Dropped counts pieces whose tile was already claimed.
type RosterRepairedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Restored int
	Dropped  int
}

// NewRosterRepairedEvent creates a new RosterRepairedEvent
func NewRosterRepairedEvent(gameID string, restored, dropped, ply int) *RosterRepairedEvent {
	return &RosterRepairedEvent{
		BaseEvent: newBase(TypeRosterRepaired, gameID),
		Metadata:  EventMetadata{Ply: ply},
		Restored:  restored,
		Dropped:   dropped,
	}
}

// GameForfeitedEvent is published when a player resigns.
type GameForfeitedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Player   core.PlayerID
}

// NewGameForfeitedEvent creates a new GameForfeitedEvent
func NewGameForfeitedEvent(gameID string, player core.PlayerID, ply int) *GameForfeitedEvent {
	return &GameForfeitedEvent{
		BaseEvent: newBase(TypeGameForfeited, gameID),
		Metadata:  EventMetadata{Player: player.String(), Ply: ply},
		Player:    player,
	}
}

// GameEndedEvent is published once per game when it finishes. Winner is empty for a
// game without a winner.
type GameEndedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Winner   string
	Reason   string
	Duration time.Duration
}

// NewGameEndedEvent creates a new GameEndedEvent
func NewGameEndedEvent(gameID, winner, reason string, duration time.Duration, ply int) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: newBase(TypeGameEnded, gameID),
		Metadata:  EventMetadata{Player: winner, Ply: ply},
		Winner:    winner,
		Reason:    reason,
		Duration:  duration,
	}
}

// StateTransitionEvent is published when the game-flow machine changes phase
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, gameID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
