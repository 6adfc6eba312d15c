package gameserver

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/rules"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chess.v1.ChessService"

// ChessServiceServer is the server API for the chess service. Every message is a
// google.protobuf.Struct; field names are listed on each Server method.
type ChessServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetGameState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetVision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLayout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitMove(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndTurn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Promote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Forfeit(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv ChessServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChessServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ChessServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ChessService_ServiceDesc describes the service for grpc.Server.RegisterService.
var ChessService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChessServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Ping", ChessServiceServer.Ping),
		unaryMethod("CreateGame", ChessServiceServer.CreateGame),
		unaryMethod("GetGameState", ChessServiceServer.GetGameState),
		unaryMethod("GetVision", ChessServiceServer.GetVision),
		unaryMethod("GetLayout", ChessServiceServer.GetLayout),
		unaryMethod("SubmitMove", ChessServiceServer.SubmitMove),
		unaryMethod("EndTurn", ChessServiceServer.EndTurn),
		unaryMethod("Promote", ChessServiceServer.Promote),
		unaryMethod("Forfeit", ChessServiceServer.Forfeit),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chess/v1/chess.proto",
}

// RegisterChessServiceServer registers srv with s.
func RegisterChessServiceServer(s grpc.ServiceRegistrar, srv ChessServiceServer) {
	s.RegisterService(&ChessService_ServiceDesc, srv)
}

// Server implements ChessServiceServer on top of a GameMaster.
type Server struct {
	gm          *gamemaster.GameMaster
	idempotency *IdempotencyManager
	logger      zerolog.Logger
	started     time.Time
}

// NewServer creates a server for gm. idempotencyTTL bounds how long SubmitMove
// replays a retried key; non-positive uses DefaultIdempotencyTTL.
func NewServer(gm *gamemaster.GameMaster, idempotencyTTL time.Duration) *Server {
	return &Server{
		gm:          gm,
		idempotency: NewIdempotencyManager(idempotencyTTL),
		logger:      log.With().Str("component", "ChessService").Logger(),
		started:     time.Now(),
	}
}

// Ping answers {"message":"pong","sessions":n,"uptime_sec":s}.
func (s *Server) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return newStruct(map[string]interface{}{
		"message":    "pong",
		"sessions":   s.gm.ActiveGames(),
		"uptime_sec": time.Since(s.started).Seconds(),
	})
}

// CreateGame starts a game from the standard setup or, with "fen", from a FEN
// position. It answers the new "game_id", its "fen" and a text "board".
func (s *Server) CreateGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd := gamemaster.Command{Kind: gamemaster.CmdNewGame}
	if v, ok := field(req, fieldFEN); ok {
		cmd.FEN = v.GetStringValue()
	}
	resp, err := s.gm.Dispatch(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	view, err := s.gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdSpectate, Game: resp.Game})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info().
		Uint64("game_id", uint64(resp.Game)).
		Bool("from_fen", cmd.FEN != "").
		Msg("Created game")

	return newStruct(map[string]interface{}{
		fieldGameID: float64(resp.Game),
		fieldFEN:    view.FEN,
		"board":     view.Board,
	})
}

// GetGameState answers the state of "game_id".
func (s *Server) GetGameState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}
	view, err := s.gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdSpectate, Game: id})
	if err != nil {
		return nil, toStatus(err)
	}
	out := stateValue(id, view.State, view.Phase, view.FEN)
	out["board"] = view.Board
	return newStruct(out)
}

// GetVision answers the vision of "piece_id", or with no piece of every piece of
// "side" (both sides when unset), under "visions".
func (s *Server) GetVision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}

	cmd := gamemaster.Command{Kind: gamemaster.CmdRequestVisionAll, Game: id}
	if _, ok := field(req, fieldPieceID); ok {
		piece, err := pieceIDFrom(req)
		if err != nil {
			return nil, err
		}
		cmd.Kind = gamemaster.CmdRequestVision
		cmd.Piece = piece
	} else if cmd.Side, err = playerFrom(req, fieldSide); err != nil {
		return nil, err
	}

	resp, err := s.gm.Dispatch(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	visions := resp.Visions
	if resp.Vision != nil {
		visions = append(visions, *resp.Vision)
	}
	list := make([]interface{}, 0, len(visions))
	for _, vp := range visions {
		list = append(list, visionValue(vp))
	}
	return newStruct(map[string]interface{}{
		fieldGameID: float64(id),
		"visions":   list,
	})
}

// GetLayout answers the 64 tiles of "game_id" in index order.
func (s *Server) GetLayout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdRequestLayout, Game: id})
	if err != nil {
		return nil, toStatus(err)
	}
	out := layoutValue(*resp.Layout)
	out[fieldGameID] = float64(id)
	return newStruct(out)
}

// SubmitMove moves "piece_id" of "player" either to "to" or by "move_op", with an
// optional "promotion" class. A repeated "idempotency_key" replays the first
// outcome instead of moving again.
func (s *Server) SubmitMove(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}
	player, err := requiredPlayer(req)
	if err != nil {
		return nil, err
	}
	key := ""
	if v, ok := field(req, fieldIdempotencyKey); ok {
		key = v.GetStringValue()
	}
	if cached, ok := s.idempotency.Check(id, player, key); ok {
		s.logger.Debug().
			Uint64("game_id", uint64(id)).
			Str("idempotency_key", key).
			Msg("Replaying cached move outcome")
		return cached.Response, cached.Err
	}

	resp, err := s.submitMove(ctx, id, player, req)
	s.idempotency.Store(id, player, key, Outcome{Response: resp, Err: err})
	return resp, err
}

func (s *Server) submitMove(ctx context.Context, id gamemaster.GameID, player core.PlayerID, req *structpb.Struct) (*structpb.Struct, error) {
	piece, err := pieceIDFrom(req)
	if err != nil {
		return nil, err
	}
	cmd := gamemaster.Command{Kind: gamemaster.CmdSubmitMove, Game: id, Player: player, Piece: piece}
	if cmd.To, err = tileFrom(req, fieldTo); err != nil {
		return nil, err
	}
	if cmd.To == nil {
		op, ok, err := integer(req, fieldMoveOp, 0, rules.MaxVisionMoves-1)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidArgument("either %s or %s is required", fieldTo, fieldMoveOp)
		}
		cmd.MoveOp = int(op)
	}
	if cmd.Promotion, err = pieceTypeFrom(req, fieldPromotion); err != nil {
		return nil, err
	}

	resp, err := s.gm.Dispatch(ctx, cmd)
	if err != nil {
		s.logger.Debug().Err(err).Uint64("game_id", uint64(id)).Int("piece_id", int(piece)).Msg("Move rejected")
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{
		fieldGameID: float64(id),
		"move":      moveValue(*resp.Move),
	})
}

// EndTurn hands the move from "player" to the opponent.
func (s *Server) EndTurn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.playerCommand(ctx, req, gamemaster.CmdEndTurn)
}

// Forfeit concedes "game_id" for "player".
func (s *Server) Forfeit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.playerCommand(ctx, req, gamemaster.CmdForfeit)
}

// Promote turns "piece_id" of "player" into "promotion".
func (s *Server) Promote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}
	player, err := requiredPlayer(req)
	if err != nil {
		return nil, err
	}
	piece, err := pieceIDFrom(req)
	if err != nil {
		return nil, err
	}
	class, err := pieceTypeFrom(req, fieldPromotion)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, invalidArgument("%s is required", fieldPromotion)
	}
	return s.ok(ctx, id, gamemaster.Command{Kind: gamemaster.CmdPromote, Game: id, Player: player, Piece: piece, Promotion: class})
}

func (s *Server) playerCommand(ctx context.Context, req *structpb.Struct, kind gamemaster.CommandKind) (*structpb.Struct, error) {
	id, err := gameIDFrom(req)
	if err != nil {
		return nil, err
	}
	player, err := requiredPlayer(req)
	if err != nil {
		return nil, err
	}
	return s.ok(ctx, id, gamemaster.Command{Kind: kind, Game: id, Player: player})
}

// ok dispatches cmd and answers with the resulting phase.
func (s *Server) ok(ctx context.Context, id gamemaster.GameID, cmd gamemaster.Command) (*structpb.Struct, error) {
	if _, err := s.gm.Dispatch(ctx, cmd); err != nil {
		return nil, toStatus(err)
	}
	phase, err := s.gm.Phase(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{
		fieldGameID: float64(id),
		"phase":     phase.String(),
	})
}
