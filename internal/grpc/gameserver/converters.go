package gameserver

import (
	"context"
	"errors"
	"math"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/rules"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/states"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

// Request field names
const (
	fieldGameID         = "game_id"
	fieldPlayer         = "player"
	fieldPieceID        = "piece_id"
	fieldMoveOp         = "move_op"
	fieldTo             = "to"
	fieldPromotion      = "promotion"
	fieldSide           = "side"
	fieldFEN            = "fen"
	fieldIdempotencyKey = "idempotency_key"
)

// toStatus maps an engine error onto a gRPC status by its class.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, core.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, core.ErrCapacity):
		code = codes.ResourceExhausted
	case errors.Is(err, core.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, core.ErrIllegalMove):
		code = codes.FailedPrecondition
	case errors.Is(err, core.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, core.ErrRuleUnavailable):
		code = codes.Unimplemented
	}
	return status.Error(code, err.Error())
}

func invalidArgument(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func field(req *structpb.Struct, name string) (*structpb.Value, bool) {
	v, ok := req.GetFields()[name]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// integer reads a whole number field within [lo, hi].
func integer(req *structpb.Struct, name string, lo, hi float64) (int64, bool, error) {
	v, ok := field(req, name)
	if !ok {
		return 0, false, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum {
		return 0, true, invalidArgument("%s must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < lo || f > hi {
		return 0, true, invalidArgument("%s out of range: %v", name, f)
	}
	return int64(f), true, nil
}

func gameIDFrom(req *structpb.Struct) (gamemaster.GameID, error) {
	// float64 holds integers exactly only up to 2^53
	n, ok, err := integer(req, fieldGameID, 0, 1<<53)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, invalidArgument("%s is required", fieldGameID)
	}
	return gamemaster.GameID(n), nil
}

func pieceIDFrom(req *structpb.Struct) (core.PieceID, error) {
	n, ok, err := integer(req, fieldPieceID, -16, 16)
	if err != nil {
		return 0, err
	}
	if !ok || n == 0 {
		return 0, invalidArgument("%s is required", fieldPieceID)
	}
	return core.PieceID(n), nil
}

// parsePlayer accepts "white"/"black", "player_1"/"player_2" and "p1"/"p2".
func parsePlayer(s string) (core.PlayerID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "player_1", "p1":
		return core.PlayerOne, nil
	case "black", "player_2", "p2":
		return core.PlayerTwo, nil
	}
	return false, invalidArgument("unknown player %q", s)
}

func playerFrom(req *structpb.Struct, name string) (*core.PlayerID, error) {
	v, ok := field(req, name)
	if !ok {
		return nil, nil
	}
	p, err := parsePlayer(v.GetStringValue())
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func requiredPlayer(req *structpb.Struct) (core.PlayerID, error) {
	p, err := playerFrom(req, fieldPlayer)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, invalidArgument("%s is required", fieldPlayer)
	}
	return *p, nil
}

// tileFrom accepts an algebraic square ("e4") or a linear index.
func tileFrom(req *structpb.Struct, name string) (*core.TileID, error) {
	v, ok := field(req, name)
	if !ok {
		return nil, nil
	}
	if s, isStr := v.GetKind().(*structpb.Value_StringValue); isStr {
		t, err := core.ParseSquare(s.StringValue)
		if err != nil {
			return nil, toStatus(err)
		}
		return &t, nil
	}
	n, _, err := integer(req, name, 0, core.TileCount-1)
	if err != nil {
		return nil, err
	}
	t := core.TileID(n)
	return &t, nil
}

func pieceTypeFrom(req *structpb.Struct, name string) (*core.PieceType, error) {
	v, ok := field(req, name)
	if !ok {
		return nil, nil
	}
	t, err := core.ParsePieceType(v.GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return &t, nil
}

// newStruct builds a response, failing with Internal on values structpb rejects.
func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func optionalPlayer(p *core.PlayerID) interface{} {
	if p == nil {
		return nil
	}
	return p.Color().String()
}

func optionalClock(c *uint32) interface{} {
	if c == nil {
		return nil
	}
	return float64(*c)
}

func pieceValue(p core.Piece) map[string]interface{} {
	return map[string]interface{}{
		"id":     int(p.ID),
		"type":   p.Type.String(),
		"color":  p.Color.String(),
		"square": p.Loc.String(),
		"moves":  p.Moves,
	}
}

// stateValue describes a snapshot for clients.
func stateValue(id gamemaster.GameID, gs *game.GameState, phase states.GamePhase, fen string) map[string]interface{} {
	pieces := make([]interface{}, 0, gs.PieceCount())
	for _, roster := range []*game.PlayerData{&gs.P1, &gs.P2} {
		for _, p := range roster.Pieces() {
			pieces = append(pieces, pieceValue(p))
		}
	}
	return map[string]interface{}{
		fieldGameID:  float64(id),
		"label":      gs.History.ID,
		"phase":      phase.String(),
		"started":    gs.Started,
		"finished":   gs.Finished,
		"active":     optionalPlayer(gs.Active),
		"winner":     optionalPlayer(gs.Winner),
		"end_reason": gs.EndReason,
		"p1_clock":   optionalClock(gs.P1Clock),
		"p2_clock":   optionalClock(gs.P2Clock),
		"plies":      gs.History.Len(),
		fieldFEN:     fen,
		"pieces":     pieces,
	}
}

func visionValue(vp rules.VisionPiece) map[string]interface{} {
	moves := make([]interface{}, 0, vp.Len())
	for op, m := range vp.Moves() {
		moves = append(moves, map[string]interface{}{
			"op":      op,
			"dest":    m.Dest.String(),
			"capture": m.Capture,
			"dir":     m.Dir.String(),
		})
	}
	return map[string]interface{}{
		fieldPieceID: int(vp.PieceID),
		"moves":      moves,
	}
}

func layoutValue(l game.Layout) map[string]interface{} {
	coords := l.Coordinates()
	tiles := make([]interface{}, 0, len(coords))
	for _, c := range coords {
		t, _ := l.At(c)
		entry := map[string]interface{}{
			"square": c.String(),
			"shade":  t.Shade.String(),
		}
		if t.WhiteEndzone {
			entry["endzone"] = core.White.String()
		} else if t.BlackEndzone {
			entry["endzone"] = core.Black.String()
		}
		if !t.IsEmpty() {
			entry["occupant"] = int(t.Occupant)
		}
		tiles = append(tiles, entry)
	}
	return map[string]interface{}{"tiles": tiles}
}

func moveValue(m core.MoveAction) map[string]interface{} {
	out := map[string]interface{}{
		fieldPieceID: int(m.Piece),
		"from":       m.From.String(),
		fieldTo:      m.To.String(),
		"capture":    m.Capture,
	}
	if m.Promotion != nil {
		out[fieldPromotion] = m.Promotion.String()
	}
	return out
}
