package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn reports whether eventType passes the filter. A filter entry
// "piece.*" admits every event of the piece category.
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType] || ls.eventTypeFilter[events.Category(eventType)+".*"]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("game_id", event.GameID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	switch e := event.(type) {
	case *events.GameCreatedEvent:
		logEvent.
			Str("label", e.Label).
			Str("setup", e.Setup).
			Int("pieces", e.Pieces)

	case *events.GameEndedEvent:
		logEvent.
			Str("winner", e.Winner).
			Str("reason", e.Reason).
			Dur("duration", e.Duration)

	case *events.PiecePlacedEvent:
		logEvent.
			Int16("piece_id", int16(e.PieceID)).
			Str("piece", e.Piece.String()).
			Str("color", e.Color.String()).
			Str("tile", e.Tile.String())

	case *events.MoveAppliedEvent:
		logEvent.
			Str("player", e.Metadata.Player).
			Int16("piece_id", int16(e.PieceID)).
			Str("from", e.From.String()).
			Str("to", e.To.String()).
			Bool("capture", e.Capture).
			Int("ply", e.Metadata.Ply)

	case *events.PieceCapturedEvent:
		logEvent.
			Int16("captured_id", int16(e.CapturedID)).
			Str("captured", e.Captured.String()).
			Int16("capturer_id", int16(e.CapturerID)).
			Str("tile", e.Tile.String())

	case *events.PiecePromotedEvent:
		logEvent.
			Int16("piece_id", int16(e.PieceID)).
			Str("to", e.To.String()).
			Str("tile", e.Tile.String())

	case *events.PlayerActivatedEvent:
		logEvent.Str("player", e.Player.String())

	case *events.RosterRepairedEvent:
		logEvent.
			Int("restored", e.Restored).
			Int("dropped", e.Dropped)

	case *events.GameForfeitedEvent:
		logEvent.Str("player", e.Player.String())

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)
	}

	// In dev mode, also log the full event as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}
