// Package gamemaster owns the table of independent game sessions and resolves
// commands onto them. Each session allows one writer or many readers at a time;
// different sessions never share a lock.
package gamemaster

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/config"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/events"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/notation"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/rules"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/states"
)

// Origin of a session's position
const (
	OriginStandard  = "standard"
	OriginArbitrary = "arbitrary"
	OriginFEN       = "fen"
)

// Config controls a GameMaster. The zero value gives unlimited untimed sessions.
type Config struct {
	// MaxSessions caps live sessions; 0 means unlimited
	MaxSessions int
	// DefaultClock is the starting clock of new games, nil for untimed
	DefaultClock *uint32
	// EnforceKingSafety rejects moves that leave the mover's king attacked
	EnforceKingSafety bool
	// IDs issues session ids; nil means SequentialIDs from 1
	IDs IDGenerator
	// Subscribers are attached to every session's event bus
	Subscribers []events.Subscriber
}

// ConfigFrom maps the application configuration onto a GameMaster config.
func ConfigFrom(app *config.Config) Config {
	return Config{
		MaxSessions:       app.Game.MaxSessions,
		DefaultClock:      app.DefaultClock(),
		EnforceKingSafety: app.Game.EnforceKingSafety,
	}
}

// Clocks carries the optional clock values of both players in milliseconds.
type Clocks struct {
	P1 *uint32
	P2 *uint32
}

// Stats summarises the session table.
type Stats struct {
	Sessions int
	Idle     int
	Running  int
	Ended    int
	Created  uint64
	Removed  uint64
}

// GameMaster manages all sessions.
type GameMaster struct {
	mu       sync.RWMutex
	sessions map[GameID]*session
	created  uint64
	removed  uint64

	cfg    Config
	ids    IDGenerator
	vision *rules.VisionCalculator
	logger zerolog.Logger
}

// New creates a GameMaster. It starts no goroutines; see RunJanitor.
func New(cfg Config, logger zerolog.Logger) *GameMaster {
	ids := cfg.IDs
	if ids == nil {
		ids = NewSequentialIDs(0)
	}
	return &GameMaster{
		sessions: make(map[GameID]*session),
		cfg:      cfg,
		ids:      ids,
		vision:   rules.NewVisionCalculator(),
		logger:   logger.With().Str("component", "GameMaster").Logger(),
	}
}

// CreateGame starts a session with the standard 32-piece setup and the default
// clocks.
func (gm *GameMaster) CreateGame() (GameID, error) {
	gs, err := game.NewStandardGame("", gm.cfg.DefaultClock)
	if err != nil {
		return 0, err
	}
	return gm.install(0, false, gs, OriginStandard)
}

// CreateGameFromFEN starts a session from a FEN position with the default clocks.
func (gm *GameMaster) CreateGameFromFEN(fen string) (GameID, error) {
	gs, err := notation.ParseFEN("", fen)
	if err != nil {
		return 0, err
	}
	if gm.cfg.DefaultClock != nil {
		p1, p2 := *gm.cfg.DefaultClock, *gm.cfg.DefaultClock
		gs.P1Clock, gs.P2Clock = &p1, &p2
	}
	return gm.install(0, false, gs, OriginFEN)
}

// TryInitArbitraryGame installs a session under id from an externally built
// position. The history is replayed from an empty board, after a roster repair
// when it does not start with one, and must reproduce board exactly. Nothing is
// committed unless every check passes.
func (gm *GameMaster) TryInitArbitraryGame(id GameID, started bool, active *core.PlayerID, clocks Clocks, board *core.Board, history game.History) (GameID, error) {
	if (clocks.P1 != nil || clocks.P2 != nil) && active == nil {
		return 0, core.WrapGameError(uint64(id), "init", core.ErrClockWithoutActivePlayer)
	}
	if board == nil {
		return 0, core.WrapGameError(uint64(id), "init", fmt.Errorf("%w: no board supplied", core.ErrValidation))
	}
	if gm.exists(id) {
		return 0, core.WrapGameError(uint64(id), "init", core.ErrGameExists)
	}

	rebuilt := game.Reconstruct(history.ID, history.Actions())
	gs, err := game.Replay(rebuilt, gm.vision)
	if err != nil {
		return 0, core.WrapGameError(uint64(id), "init", err)
	}
	if !gs.Board.Equal(board) {
		return 0, core.WrapGameError(uint64(id), "init", core.ErrInconsistentBoard)
	}
	if gs.Started && !started {
		return 0, core.WrapGameError(uint64(id), "init",
			fmt.Errorf("%w: history contains moves but the game is marked as not started", core.ErrValidation))
	}

	gs.Started = started
	if active != nil {
		// A different side to move is a hand-over; record it so the log and the
		// turn state agree.
		if gs.Active == nil || *gs.Active != *active {
			gs.History.Append(core.SetActivePlayerAction{Player: *active})
		}
		a := *active
		gs.Active = &a
	} else {
		gs.Active = nil
	}
	gs.P1Clock = copyClock(clocks.P1)
	gs.P2Clock = copyClock(clocks.P2)
	if err := gs.Validate(); err != nil {
		return 0, core.WrapGameError(uint64(id), "init", err)
	}
	return gm.install(id, true, gs, OriginArbitrary)
}

func copyClock(c *uint32) *uint32 {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

// install registers gs. With fixed set the session takes id, otherwise the next
// free generated id.
func (gm *GameMaster) install(id GameID, fixed bool, gs *game.GameState, origin string) (GameID, error) {
	gm.mu.Lock()
	if gm.cfg.MaxSessions > 0 && len(gm.sessions) >= gm.cfg.MaxSessions {
		current := len(gm.sessions)
		gm.mu.Unlock()
		gm.logger.Warn().
			Int("current_sessions", current).
			Int("max_sessions", gm.cfg.MaxSessions).
			Msg("Rejecting game creation - at capacity")
		return 0, fmt.Errorf("%d/%d sessions: %w", current, gm.cfg.MaxSessions, core.ErrCapacity)
	}
	if fixed {
		if _, used := gm.sessions[id]; used {
			gm.mu.Unlock()
			return 0, core.WrapGameError(uint64(id), "init", core.ErrGameExists)
		}
	} else {
		id = gm.nextFreeLocked()
	}
	if gs.History.ID == "" {
		gs.History.ID = fmt.Sprintf("game-%d", id)
	}

	logger := gm.logger.With().Uint64("game_id", uint64(id)).Logger()
	s := newSession(id, gs, origin, gm.cfg, logger)
	if err := s.sync("session installed"); err != nil {
		gm.mu.Unlock()
		return 0, core.WrapGameError(uint64(id), "init", err)
	}
	gm.sessions[id] = s
	gm.created++
	count := len(gm.sessions)
	gm.mu.Unlock()

	s.bus.Publish(events.NewGameCreatedEvent(gs.History.ID, gs.History.ID, origin, gs.PieceCount()))
	gm.logger.Info().
		Uint64("game_id", uint64(id)).
		Str("label", gs.History.ID).
		Str("origin", origin).
		Int("sessions", count).
		Msg("Created game session")
	return id, nil
}

func (gm *GameMaster) nextFreeLocked() GameID {
	for {
		id := gm.ids.Next()
		if _, used := gm.sessions[id]; !used {
			return id
		}
	}
}

func (gm *GameMaster) exists(id GameID) bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	_, ok := gm.sessions[id]
	return ok
}

func (gm *GameMaster) session(id GameID) (*session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[id]
	if !ok {
		return nil, core.WrapGameError(uint64(id), "lookup", core.ErrGameNotFound)
	}
	return s, nil
}

// read runs fn under the session's read lock.
func (gm *GameMaster) read(id GameID, op string, fn func(s *session) error) error {
	s, err := gm.session(id)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := fn(s); err != nil {
		return core.WrapGameError(uint64(id), op, err)
	}
	return nil
}

// write runs fn under the session's write lock and mirrors the outcome onto the
// phase machine.
func (gm *GameMaster) write(id GameID, op string, fn func(s *session) error) error {
	s, err := gm.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if err := fn(s); err != nil {
		return core.WrapGameError(uint64(id), op, err)
	}
	if err := s.sync(op); err != nil {
		gm.logger.Error().Err(err).Uint64("game_id", uint64(id)).Msg("Phase sync failed")
	}
	return nil
}

// RequestGameState returns a deep snapshot of a session's state.
func (gm *GameMaster) RequestGameState(id GameID) (*game.GameState, error) {
	var snap *game.GameState
	err := gm.read(id, "state", func(s *session) error {
		snap = s.engine.Snapshot()
		return nil
	})
	return snap, err
}

// RequestVision returns the vision of one piece.
func (gm *GameMaster) RequestVision(id GameID, piece core.PieceID) (rules.VisionPiece, error) {
	var vp rules.VisionPiece
	err := gm.read(id, "vision", func(s *session) error {
		var err error
		vp, err = s.engine.Vision(piece)
		return err
	})
	return vp, err
}

// RequestVisionAll returns the vision of every piece of player, or of both sides
// when player is nil.
func (gm *GameMaster) RequestVisionAll(id GameID, player *core.PlayerID) ([]rules.VisionPiece, error) {
	var out []rules.VisionPiece
	err := gm.read(id, "vision", func(s *session) error {
		var err error
		out, err = s.engine.VisionAll(player)
		return err
	})
	return out, err
}

// RequestLayout returns the coordinate-keyed tile map of a session's board.
func (gm *GameMaster) RequestLayout(id GameID) (game.Layout, error) {
	var l game.Layout
	err := gm.read(id, "layout", func(s *session) error {
		l = game.LayoutOf(s.engine.State())
		return nil
	})
	return l, err
}

// RequestFEN describes a session's position in FEN.
func (gm *GameMaster) RequestFEN(id GameID) (string, error) {
	var fen string
	err := gm.read(id, "fen", func(s *session) error {
		fen = notation.ToFEN(s.engine.State())
		return nil
	})
	return fen, err
}

// Phase returns the lifecycle phase of a session.
func (gm *GameMaster) Phase(id GameID) (states.GamePhase, error) {
	var p states.GamePhase
	err := gm.read(id, "phase", func(s *session) error {
		p = s.phase()
		return nil
	})
	return p, err
}

// Subscribe attaches a subscriber to one session's events.
func (gm *GameMaster) Subscribe(id GameID, sub events.Subscriber) error {
	s, err := gm.session(id)
	if err != nil {
		return err
	}
	s.bus.Subscribe(sub)
	return nil
}

// SubmitMove applies the move-op-th entry of a piece's vision for player. Op 0 is
// the no-op and is rejected. It returns the move as recorded.
func (gm *GameMaster) SubmitMove(id GameID, player core.PlayerID, piece core.PieceID, op int, promotion *core.PieceType) (core.MoveAction, error) {
	var recorded core.MoveAction
	err := gm.write(id, "move", func(s *session) error {
		if err := gm.checkTurn(s, player, piece); err != nil {
			return err
		}
		move, err := s.engine.MoveFromOp(piece, op, promotion)
		if err != nil {
			return err
		}
		recorded, err = gm.applyMove(s, move)
		return err
	})
	return recorded, err
}

// SubmitMoveTo moves a piece of player to a destination tile.
func (gm *GameMaster) SubmitMoveTo(id GameID, player core.PlayerID, piece core.PieceID, to core.TileID, promotion *core.PieceType) (core.MoveAction, error) {
	var recorded core.MoveAction
	err := gm.write(id, "move", func(s *session) error {
		if err := gm.checkTurn(s, player, piece); err != nil {
			return err
		}
		p, _ := s.engine.State().FindPiece(piece)
		var err error
		recorded, err = gm.applyMove(s, core.MoveAction{Piece: piece, From: p.Loc, To: to, Promotion: promotion})
		return err
	})
	return recorded, err
}

// checkTurn enforces whose turn it is, one move per turn and piece ownership.
func (gm *GameMaster) checkTurn(s *session, player core.PlayerID, piece core.PieceID) error {
	gs := s.engine.State()
	if gs.Finished {
		return core.ErrGameOver
	}
	if gs.Active == nil || *gs.Active != player {
		return fmt.Errorf("%s: %w", player, core.ErrNotYourTurn)
	}
	if gs.History.MovedThisTurn() {
		return fmt.Errorf("%w: %s already moved this turn", core.ErrIllegalMove, player)
	}
	p, ok := gs.FindPiece(piece)
	if !ok {
		return fmt.Errorf("piece %d: %w", piece, core.ErrPieceNotFound)
	}
	if p.Color != player.Color() {
		return fmt.Errorf("%w: piece %d belongs to %s", core.ErrIllegalMove, piece, p.Color)
	}
	return nil
}

func (gm *GameMaster) applyMove(s *session, move core.MoveAction) (core.MoveAction, error) {
	if gm.cfg.EnforceKingSafety {
		if err := kingSafe(s.engine.State(), move); err != nil {
			return core.MoveAction{}, err
		}
	}
	if err := s.engine.Apply(move); err != nil {
		return core.MoveAction{}, err
	}
	last, _ := s.engine.State().History.Last()
	recorded, _ := last.(core.MoveAction)
	return recorded, nil
}

// kingSafe rejects a move the reference generator does not list. Positions
// without both kings are not checked.
func kingSafe(gs *game.GameState, move core.MoveAction) error {
	legal, err := notation.ReferenceDestinations(gs, move.Piece)
	if errors.Is(err, core.ErrRuleUnavailable) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, to := range legal {
		if to == move.To {
			return nil
		}
	}
	return fmt.Errorf("piece %d to %s (safe: %s): %w", move.Piece, move.To, core.JoinTiles(legal), core.ErrKingExposed)
}

// EndTurn hands the move to the other player. The player must have moved.
func (gm *GameMaster) EndTurn(id GameID, player core.PlayerID) error {
	return gm.write(id, "end turn", func(s *session) error {
		gs := s.engine.State()
		if gs.Finished {
			return core.ErrGameOver
		}
		if gs.Active == nil || *gs.Active != player {
			return fmt.Errorf("%s: %w", player, core.ErrNotYourTurn)
		}
		if !gs.History.MovedThisTurn() {
			return fmt.Errorf("%w: %s has not moved yet", core.ErrIllegalMove, player)
		}
		return s.engine.Apply(core.SetActivePlayerAction{Player: player.Other()})
	})
}

// Promote turns player's pawn standing on its promotion rank into class.
func (gm *GameMaster) Promote(id GameID, player core.PlayerID, piece core.PieceID, class core.PieceType) error {
	return gm.write(id, "promote", func(s *session) error {
		gs := s.engine.State()
		if gs.Finished {
			return core.ErrGameOver
		}
		if gs.Active == nil || *gs.Active != player {
			return fmt.Errorf("%s: %w", player, core.ErrNotYourTurn)
		}
		p, ok := gs.FindPiece(piece)
		if !ok {
			return fmt.Errorf("piece %d: %w", piece, core.ErrPieceNotFound)
		}
		if p.Color != player.Color() {
			return fmt.Errorf("%w: piece %d belongs to %s", core.ErrIllegalMove, piece, p.Color)
		}
		return s.engine.Apply(core.PromoteAction{Piece: piece, To: class})
	})
}

// Forfeit ends the game in favour of player's opponent.
func (gm *GameMaster) Forfeit(id GameID, player core.PlayerID) error {
	return gm.write(id, "forfeit", func(s *session) error {
		return s.engine.Apply(core.ForfeitAction{Player: player})
	})
}

// RemoveGame drops a session.
func (gm *GameMaster) RemoveGame(id GameID) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if _, ok := gm.sessions[id]; !ok {
		return core.WrapGameError(uint64(id), "remove", core.ErrGameNotFound)
	}
	delete(gm.sessions, id)
	gm.removed++
	gm.logger.Info().Uint64("game_id", uint64(id)).Int("sessions", len(gm.sessions)).Msg("Removed game session")
	return nil
}

// ActiveGames returns the number of live sessions.
func (gm *GameMaster) ActiveGames() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.sessions)
}

// Stats counts sessions per phase.
func (gm *GameMaster) Stats() Stats {
	gm.mu.RLock()
	st := Stats{Sessions: len(gm.sessions), Created: gm.created, Removed: gm.removed}
	refs := make([]*session, 0, len(gm.sessions))
	for _, s := range gm.sessions {
		refs = append(refs, s)
	}
	gm.mu.RUnlock()

	for _, s := range refs {
		switch s.phase() {
		case states.PhaseIdle:
			st.Idle++
		case states.PhaseRunning:
			st.Running++
		case states.PhaseEnded:
			st.Ended++
		}
	}
	return st
}

// Cleanup removes sessions without activity for longer than idle, and returns how
// many it removed.
func (gm *GameMaster) Cleanup(idle time.Duration) int {
	// Collect references first so session locks are never taken under gm.mu.
	gm.mu.RLock()
	refs := make([]*session, 0, len(gm.sessions))
	for _, s := range gm.sessions {
		refs = append(refs, s)
	}
	gm.mu.RUnlock()

	now := time.Now()
	var stale []*session
	for _, s := range refs {
		s.mu.RLock()
		inactive := now.Sub(s.lastActivity)
		s.mu.RUnlock()
		if inactive > idle {
			stale = append(stale, s)
			gm.logger.Info().
				Uint64("game_id", uint64(s.id)).
				Str("phase", s.phase().String()).
				Dur("age", now.Sub(s.createdAt)).
				Dur("inactive", inactive).
				Msg("Cleaning up idle game")
		}
	}
	if len(stale) == 0 {
		return 0
	}

	gm.mu.Lock()
	removed := 0
	for _, s := range stale {
		if cur, ok := gm.sessions[s.id]; ok && cur == s {
			delete(gm.sessions, s.id)
			removed++
		}
	}
	gm.removed += uint64(removed)
	remaining := len(gm.sessions)
	gm.mu.Unlock()

	gm.logger.Info().Int("cleaned", removed).Int("remaining", remaining).Msg("Game cleanup completed")
	return removed
}
