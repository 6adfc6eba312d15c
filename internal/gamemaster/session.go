package gamemaster

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/events"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/states"
)

// session is one game. mu serialises mutations and lets queries run side by side.
type session struct {
	id     GameID
	origin string

	mu           sync.RWMutex
	engine       *game.Engine
	bus          *events.EventBus
	machine      *states.StateMachine
	createdAt    time.Time
	lastActivity time.Time
}

func newSession(id GameID, gs *game.GameState, origin string, cfg Config, logger zerolog.Logger) *session {
	label := gs.History.ID
	bus := events.NewEventBusWithLogger(logger)
	for _, sub := range cfg.Subscribers {
		bus.Subscribe(sub)
	}
	machine := states.NewStateMachine(states.NewGameContext(label, logger), bus)
	engine := game.NewEngine(gs, game.EngineConfig{
		GameID:    label,
		Logger:    logger,
		Publisher: bus,
	})

	now := time.Now()
	return &session{
		id:           id,
		origin:       origin,
		engine:       engine,
		bus:          bus,
		machine:      machine,
		createdAt:    now,
		lastActivity: now,
	}
}

// sync mirrors the state's flags onto the phase machine. Caller holds mu.
func (s *session) sync(reason string) error {
	gs := s.engine.State()
	if gs.Finished {
		winner := ""
		if gs.Winner != nil {
			winner = gs.Winner.String()
		}
		if gs.EndReason != "" {
			reason = gs.EndReason
		}
		if gs.Started {
			if err := s.machine.Sync(true, false, reason); err != nil {
				return err
			}
		}
		return s.machine.End(winner, reason)
	}
	return s.machine.Sync(gs.Started, false, reason)
}

func (s *session) touch() {
	s.lastActivity = time.Now()
}

func (s *session) phase() states.GamePhase {
	return s.machine.CurrentPhase()
}
