package game

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/events"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/rules"
)

// EngineConfig wires an Engine to its collaborators. Zero values are usable: a nil
// Publisher drops events and a nil Vision gets the standard rules.
type EngineConfig struct {
	GameID    string
	Logger    zerolog.Logger
	Publisher events.Publisher
	Vision    *rules.VisionCalculator
}

// Engine applies actions to one GameState. It does no locking of its own; callers
// serialise mutations.
type Engine struct {
	gameID    string
	gs        *GameState
	vision    *rules.VisionCalculator
	win       *rules.WinConditionChecker
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewEngine wraps gs.
func NewEngine(gs *GameState, cfg EngineConfig) *Engine {
	if cfg.Vision == nil {
		cfg.Vision = rules.NewVisionCalculator()
	}
	logger := cfg.Logger.With().Str("component", "GameEngine").Str("game_id", cfg.GameID).Logger()
	return &Engine{
		gameID:    cfg.GameID,
		gs:        gs,
		vision:    cfg.Vision,
		win:       rules.NewWinConditionChecker(logger),
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// State returns the live state. Callers must not retain it outside their lock.
func (e *Engine) State() *GameState { return e.gs }

// Snapshot returns a deep copy of the state.
func (e *Engine) Snapshot() *GameState { return e.gs.Clone() }

// Apply validates and applies action, then records it. A rejected action leaves
// the state untouched.
func (e *Engine) Apply(action core.Action) error {
	recorded, err := e.apply(action, true)
	if err != nil {
		e.logger.Debug().Err(err).Str("action", core.GetActionType(action)).Msg("Action rejected")
		return core.WrapActionError(action, err)
	}
	e.gs.History.Append(recorded)
	e.logger.Debug().
		Str("action", recorded.String()).
		Int("ply", e.gs.History.Len()).
		Msg("Action applied")
	return nil
}

// replay applies action without recording it or publishing events.
func (e *Engine) replay(action core.Action) error {
	if _, err := e.apply(action, false); err != nil {
		return core.WrapActionError(action, err)
	}
	return nil
}

// Replay rebuilds a state by applying every action of history to an empty game.
// The result carries the same history; clocks are not part of the log and stay
// unset.
func Replay(history History, vision *rules.VisionCalculator) (*GameState, error) {
	gs := NewGameState(history.ID)
	e := NewEngine(gs, EngineConfig{GameID: history.ID, Logger: zerolog.Nop(), Vision: vision})
	for i, action := range history.actions {
		if err := e.replay(action); err != nil {
			return nil, fmt.Errorf("replay action %d of %q: %w", i, history.ID, err)
		}
		gs.History.Append(action)
	}
	return gs, nil
}

func (e *Engine) publish(live bool, ev events.Event) {
	if live && e.publisher != nil {
		e.publisher.Publish(ev)
	}
}

// apply returns the action as it should be recorded: move capture flags and
// promotion choices are normalised to what actually happened.
func (e *Engine) apply(action core.Action, live bool) (core.Action, error) {
	switch a := action.(type) {
	case nil:
		return core.NilAction{}, nil
	case core.NilAction:
		return a, nil
	case core.RepairRosterAction:
		e.repairRoster(live)
		return a, nil
	case core.SetActivePlayerAction:
		if e.gs.Finished {
			return nil, core.ErrGameOver
		}
		player := a.Player
		e.gs.Active = &player
		e.publish(live, events.NewPlayerActivatedEvent(e.gameID, player, e.gs.History.Len()))
		return a, nil
	case core.PlaceAction:
		if e.gs.Started {
			return nil, fmt.Errorf("%w: pieces can only be placed before the first move", core.ErrIllegalMove)
		}
		if err := e.gs.Place(a.Piece.Loc, a.Piece); err != nil {
			return nil, err
		}
		e.publish(live, events.NewPiecePlacedEvent(e.gameID, a.Piece, e.gs.History.Len()))
		return a, nil
	case core.MoveAction:
		return e.applyMove(a, live)
	case core.PromoteAction:
		return e.applyPromote(a, live)
	case core.ForfeitAction:
		if e.gs.Finished {
			return nil, core.ErrGameOver
		}
		e.gs.RosterFor(a.Player).forfeited = true
		e.publish(live, events.NewGameForfeitedEvent(e.gameID, a.Player, e.gs.History.Len()))
		e.checkGameOver(live)
		return a, nil
	default:
		return nil, fmt.Errorf("%w: unsupported action %T", core.ErrValidation, action)
	}
}

func (e *Engine) applyMove(m core.MoveAction, live bool) (core.Action, error) {
	if e.gs.Finished {
		return nil, core.ErrGameOver
	}
	piece, ok := e.gs.FindPiece(m.Piece)
	if !ok {
		return nil, fmt.Errorf("piece %d: %w", m.Piece, core.ErrPieceNotFound)
	}
	if piece.Loc != m.From {
		return nil, fmt.Errorf("%w: piece %d stands on %s, not %s", core.ErrIllegalMove, piece.ID, piece.Loc, m.From)
	}
	if occ, ok := e.gs.Occupant(m.From); !ok || occ != piece.ID {
		return nil, fmt.Errorf("%w: %s does not reference piece %d", core.ErrInconsistentBoard, m.From, piece.ID)
	}

	vp, err := e.vision.CalculateVision(piece, e.gs)
	if err != nil {
		return nil, err
	}
	mv, ok := vp.Find(m.To)
	if !ok {
		return nil, fmt.Errorf("piece %d to %s: %w", piece.ID, m.To, core.ErrUnknownMoveOp)
	}
	promoteTo, promotes, err := e.promotionFor(piece, m.To, m.Promotion)
	if err != nil {
		return nil, err
	}

	// Checks are done; both squares are on the board, so the writes below cannot fail.
	ply := e.gs.History.Len()
	_ = e.gs.Board.Clear(m.From)
	var victim core.Piece
	if mv.Capture {
		victimID, _ := e.gs.Occupant(m.To)
		victim, _ = e.gs.Roster(piece.Color.Opponent()).remove(victimID)
	}
	_ = e.gs.Board.Clear(m.To)

	piece.UpdateLoc(m.To)
	if promotes {
		piece.Type = promoteTo
	}
	e.gs.Roster(piece.Color).update(piece)
	_ = e.gs.Board.Set(m.To, piece.ID)
	e.gs.Started = true

	m.Capture = mv.Capture
	m.Promotion = nil
	if promotes {
		m.Promotion = &promoteTo
	}

	e.publish(live, events.NewMoveAppliedEvent(e.gameID, piece.Color.PlayerID(), m, ply))
	if mv.Capture {
		e.publish(live, events.NewPieceCapturedEvent(e.gameID, victim, piece.ID, ply))
	}
	if promotes {
		e.publish(live, events.NewPiecePromotedEvent(e.gameID, piece, ply))
	}
	if mv.Capture && victim.Type == core.King {
		e.checkGameOver(live)
	}
	return m, nil
}

// promotionFor decides whether a pawn landing on to promotes and into what. A nil
// choice means queen.
func (e *Engine) promotionFor(piece core.Piece, to core.TileID, choice *core.PieceType) (core.PieceType, bool, error) {
	if piece.Type != core.Pawn {
		return 0, false, nil
	}
	tile, err := e.gs.Board.Tile(to)
	if err != nil {
		return 0, false, err
	}
	if !tile.IsEndzoneFor(piece.Color) {
		return 0, false, nil
	}
	target := core.Queen
	if choice != nil {
		target = *choice
	}
	if !promotable(target) {
		return 0, false, fmt.Errorf("pawn %d to %s: %w", piece.ID, target, core.ErrCannotPromote)
	}
	return target, true, nil
}

func promotable(t core.PieceType) bool {
	switch t {
	case core.Rook, core.Knight, core.Bishop, core.Queen:
		return true
	default:
		return false
	}
}

func (e *Engine) applyPromote(a core.PromoteAction, live bool) (core.Action, error) {
	if e.gs.Finished {
		return nil, core.ErrGameOver
	}
	piece, ok := e.gs.FindPiece(a.Piece)
	if !ok {
		return nil, fmt.Errorf("piece %d: %w", a.Piece, core.ErrPieceNotFound)
	}
	tile, err := e.gs.Board.Tile(piece.Loc)
	if err != nil {
		return nil, err
	}
	if piece.Type != core.Pawn || !tile.IsEndzoneFor(piece.Color) || !promotable(a.To) {
		return nil, fmt.Errorf("%s %d on %s to %s: %w", piece.Type, piece.ID, piece.Loc, a.To, core.ErrCannotPromote)
	}
	piece.Type = a.To
	e.gs.Roster(piece.Color).update(piece)
	e.publish(live, events.NewPiecePromotedEvent(e.gameID, piece, e.gs.History.Len()))
	return a, nil
}

// repairRoster rebuilds every board reference from roster locations. A piece whose
// tile is already claimed, or whose location is off the board, is dropped from its
// roster so the board/roster invariant holds afterwards.
func (e *Engine) repairRoster(live bool) {
	e.gs.Board.ClearAll()
	restored, dropped := 0, 0
	for _, roster := range []*PlayerData{&e.gs.P1, &e.gs.P2} {
		kept := roster.pieces[:0]
		for _, p := range roster.pieces {
			idColor, ok := p.ID.Color()
			if !ok || idColor != roster.Color || !p.Loc.Valid() || !e.gs.Board.T[p.Loc].IsEmpty() {
				dropped++
				continue
			}
			_ = e.gs.Board.Set(p.Loc, p.ID)
			kept = append(kept, p)
			restored++
		}
		roster.pieces = kept
	}
	if dropped > 0 {
		e.logger.Warn().Int("dropped", dropped).Msg("Roster repair dropped pieces with conflicting locations")
	}
	e.publish(live, events.NewRosterRepairedEvent(e.gameID, restored, dropped, e.gs.History.Len()))
}

func (e *Engine) checkGameOver(live bool) {
	if e.gs.Finished {
		return
	}
	out := e.win.CheckGameOver(&e.gs.P1, &e.gs.P2)
	if !out.Over {
		return
	}
	e.gs.Finished = true
	e.gs.Winner = out.Winner
	e.gs.EndReason = out.Reason

	winner := ""
	if out.Winner != nil {
		winner = out.Winner.String()
	}
	e.publish(live, events.NewGameEndedEvent(e.gameID, winner, out.Reason, 0, e.gs.History.Len()))
}

// Vision computes the vision of one piece against the current position.
func (e *Engine) Vision(id core.PieceID) (rules.VisionPiece, error) {
	piece, ok := e.gs.FindPiece(id)
	if !ok {
		return rules.VisionPiece{}, fmt.Errorf("piece %d: %w", id, core.ErrPieceNotFound)
	}
	return e.vision.CalculateVision(piece, e.gs)
}

// VisionAll computes the vision of every piece of player, or of both sides (white
// first) when player is nil.
func (e *Engine) VisionAll(player *core.PlayerID) ([]rules.VisionPiece, error) {
	rosters := []*PlayerData{&e.gs.P1, &e.gs.P2}
	if player != nil {
		rosters = []*PlayerData{e.gs.RosterFor(*player)}
	}
	var out []rules.VisionPiece
	for _, roster := range rosters {
		for _, piece := range roster.pieces {
			vp, err := e.vision.CalculateVision(piece, e.gs)
			if err != nil {
				return nil, err
			}
			out = append(out, vp)
		}
	}
	return out, nil
}

// MoveFromOp turns a move-op (an index into the piece's vision) into a move action.
// Index 0 is the no-op and is not a move.
func (e *Engine) MoveFromOp(id core.PieceID, op int, promotion *core.PieceType) (core.MoveAction, error) {
	vp, err := e.Vision(id)
	if err != nil {
		return core.MoveAction{}, err
	}
	mv, ok := vp.At(op)
	if !ok || mv.Dir == rules.DirNil {
		return core.MoveAction{}, fmt.Errorf("piece %d op %d: %w", id, op, core.ErrUnknownMoveOp)
	}
	piece, _ := e.gs.FindPiece(id)
	return core.MoveAction{
		Piece:     id,
		From:      piece.Loc,
		To:        mv.Dest,
		Capture:   mv.Capture,
		Promotion: promotion,
	}, nil
}
