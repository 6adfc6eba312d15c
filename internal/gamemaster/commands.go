package gamemaster

import (
	"context"
	"fmt"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/notation"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/rules"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/states"
)

// CommandKind names a client command.
type CommandKind string

const (
	CmdPing             CommandKind = "ping"
	CmdNewGame          CommandKind = "new_game"
	CmdRequestState     CommandKind = "request_state"
	CmdRequestLayout    CommandKind = "request_layout"
	CmdRequestVision    CommandKind = "request_vision"
	CmdRequestVisionAll CommandKind = "request_vision_all"
	CmdSubmitMove       CommandKind = "submit_move"
	CmdEndTurn          CommandKind = "end_turn"
	CmdPromote          CommandKind = "promote"
	CmdSpectate         CommandKind = "spectate"
	CmdForfeit          CommandKind = "forfeit"
)

// ResponseKind names a reply.
type ResponseKind string

const (
	RespPong        ResponseKind = "pong"
	RespGameCreated ResponseKind = "game_created"
	RespGameState   ResponseKind = "game_state"
	RespLayout      ResponseKind = "layout"
	RespVision      ResponseKind = "vision"
	RespVisionAll   ResponseKind = "vision_all"
	RespMoveApplied ResponseKind = "move_applied"
	RespOK          ResponseKind = "ok"
	RespSpectate    ResponseKind = "spectate"
)

// Command is one request from a client. Only the fields its kind uses are read.
type Command struct {
	Kind   CommandKind
	Game   GameID
	Player core.PlayerID
	Piece  core.PieceID
	// MoveOp indexes the piece's vision; ignored when To is set
	MoveOp    int
	To        *core.TileID
	Promotion *core.PieceType
	// Side filters request_vision_all; nil means both sides
	Side *core.PlayerID
	// FEN, when set, seeds new_game instead of the standard setup
	FEN string
}

// Response is the reply to a Command.
type Response struct {
	Kind    ResponseKind
	Game    GameID
	State   *game.GameState
	Layout  *game.Layout
	Vision  *rules.VisionPiece
	Visions []rules.VisionPiece
	Move    *core.MoveAction
	Phase   states.GamePhase
	FEN     string
	Board   string
}

// Dispatch resolves a command onto the GameMaster operations.
func (gm *GameMaster) Dispatch(ctx context.Context, cmd Command) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	gm.logger.Debug().
		Str("command", string(cmd.Kind)).
		Uint64("game_id", uint64(cmd.Game)).
		Msg("Dispatching command")

	switch cmd.Kind {
	case CmdPing:
		return Response{Kind: RespPong}, nil

	case CmdNewGame:
		var id GameID
		var err error
		if cmd.FEN != "" {
			id, err = gm.CreateGameFromFEN(cmd.FEN)
		} else {
			id, err = gm.CreateGame()
		}
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespGameCreated, Game: id}, nil

	case CmdRequestState:
		gs, err := gm.RequestGameState(cmd.Game)
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespGameState, Game: cmd.Game, State: gs}, nil

	case CmdRequestLayout:
		l, err := gm.RequestLayout(cmd.Game)
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespLayout, Game: cmd.Game, Layout: &l}, nil

	case CmdRequestVision:
		vp, err := gm.RequestVision(cmd.Game, cmd.Piece)
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespVision, Game: cmd.Game, Vision: &vp}, nil

	case CmdRequestVisionAll:
		all, err := gm.RequestVisionAll(cmd.Game, cmd.Side)
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespVisionAll, Game: cmd.Game, Visions: all}, nil

	case CmdSubmitMove:
		var move core.MoveAction
		var err error
		if cmd.To != nil {
			move, err = gm.SubmitMoveTo(cmd.Game, cmd.Player, cmd.Piece, *cmd.To, cmd.Promotion)
		} else {
			move, err = gm.SubmitMove(cmd.Game, cmd.Player, cmd.Piece, cmd.MoveOp, cmd.Promotion)
		}
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: RespMoveApplied, Game: cmd.Game, Move: &move}, nil

	case CmdEndTurn:
		if err := gm.EndTurn(cmd.Game, cmd.Player); err != nil {
			return Response{}, err
		}
		return Response{Kind: RespOK, Game: cmd.Game}, nil

	case CmdPromote:
		if cmd.Promotion == nil {
			return Response{}, fmt.Errorf("%w: promote needs a piece class", core.ErrValidation)
		}
		if err := gm.Promote(cmd.Game, cmd.Player, cmd.Piece, *cmd.Promotion); err != nil {
			return Response{}, err
		}
		return Response{Kind: RespOK, Game: cmd.Game}, nil

	case CmdForfeit:
		if err := gm.Forfeit(cmd.Game, cmd.Player); err != nil {
			return Response{}, err
		}
		return Response{Kind: RespOK, Game: cmd.Game}, nil

	case CmdSpectate:
		return gm.spectate(cmd.Game)

	default:
		return Response{}, fmt.Errorf("%w: unknown command %q", core.ErrValidation, cmd.Kind)
	}
}

// spectate renders a consistent view of a session under one read lock.
func (gm *GameMaster) spectate(id GameID) (Response, error) {
	resp := Response{Kind: RespSpectate, Game: id}
	err := gm.read(id, "spectate", func(s *session) error {
		gs := s.engine.State()
		resp.State = gs.Clone()
		resp.Board = game.Render(gs)
		resp.FEN = notation.ToFEN(gs)
		resp.Phase = s.phase()
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
