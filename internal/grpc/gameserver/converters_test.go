package gameserver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{core.ErrGameNotFound, codes.NotFound},
		{core.ErrPieceNotFound, codes.NotFound},
		{core.ErrGameExists, codes.AlreadyExists},
		{core.ErrTileOccupied, codes.AlreadyExists},
		{core.ErrCapacity, codes.ResourceExhausted},
		{core.ErrNotYourTurn, codes.FailedPrecondition},
		{core.ErrKingExposed, codes.FailedPrecondition},
		{core.ErrClockWithoutActivePlayer, codes.InvalidArgument},
		{core.ErrInconsistentBoard, codes.InvalidArgument},
		{core.ErrRuleUnavailable, codes.Unimplemented},
		{core.ErrInvalidConfig, codes.Internal},
		{context.Canceled, codes.Canceled},
		{fmt.Errorf("wrapped: %w", core.WrapGameError(3, "move", core.ErrGameOver)), codes.FailedPrecondition},
		{status.Error(codes.Aborted, "as is"), codes.Aborted},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
	assert.NoError(t, toStatus(nil))
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestRequestFields(t *testing.T) {
	req := mustStruct(t, map[string]interface{}{
		fieldGameID:    7,
		fieldPlayer:    "Black",
		fieldPieceID:   -12,
		fieldTo:        "e5",
		fieldPromotion: "n",
		fieldSide:      nil,
	})

	id, err := gameIDFrom(req)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	player, err := requiredPlayer(req)
	require.NoError(t, err)
	assert.Equal(t, core.PlayerTwo, player)

	piece, err := pieceIDFrom(req)
	require.NoError(t, err)
	assert.Equal(t, core.PieceID(-12), piece)

	to, err := tileFrom(req, fieldTo)
	require.NoError(t, err)
	require.NotNil(t, to)
	assert.Equal(t, core.E5, *to)

	promo, err := pieceTypeFrom(req, fieldPromotion)
	require.NoError(t, err)
	require.NotNil(t, promo)
	assert.Equal(t, core.Knight, *promo)

	side, err := playerFrom(req, fieldSide)
	require.NoError(t, err)
	assert.Nil(t, side, "null counts as unset")
}

func TestRequestFields_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  map[string]interface{}
		read func(*structpb.Struct) error
	}{
		{"negative game id", map[string]interface{}{fieldGameID: -1}, func(s *structpb.Struct) error { _, err := gameIDFrom(s); return err }},
		{"game id as text", map[string]interface{}{fieldGameID: "1"}, func(s *structpb.Struct) error { _, err := gameIDFrom(s); return err }},
		{"piece zero", map[string]interface{}{fieldPieceID: 0}, func(s *structpb.Struct) error { _, err := pieceIDFrom(s); return err }},
		{"unknown player", map[string]interface{}{fieldPlayer: "red"}, func(s *structpb.Struct) error { _, err := requiredPlayer(s); return err }},
		{"missing player", map[string]interface{}{}, func(s *structpb.Struct) error { _, err := requiredPlayer(s); return err }},
		{"off-board square", map[string]interface{}{fieldTo: "i9"}, func(s *structpb.Struct) error { _, err := tileFrom(s, fieldTo); return err }},
		{"off-board index", map[string]interface{}{fieldTo: 64}, func(s *structpb.Struct) error { _, err := tileFrom(s, fieldTo); return err }},
		{"unknown class", map[string]interface{}{fieldPromotion: "dragon"}, func(s *structpb.Struct) error { _, err := pieceTypeFrom(s, fieldPromotion); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(mustStruct(t, tt.req))
			assert.Equal(t, codes.InvalidArgument, status.Code(err), "error: %v", err)
		})
	}
}

func TestTileFrom_Index(t *testing.T) {
	to, err := tileFrom(mustStruct(t, map[string]interface{}{fieldTo: 28}), fieldTo)
	require.NoError(t, err)
	require.NotNil(t, to)
	assert.Equal(t, core.E4, *to)
}
