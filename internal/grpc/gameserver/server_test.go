package gameserver

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/notation"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

const bufSize = 1024 * 1024

// setupTestServer creates an in-memory gRPC server for testing
func setupTestServer(t *testing.T, cfg gamemaster.Config) *Client {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer(ServerOptions()...)
	gm := gamemaster.New(cfg, zerolog.Nop())
	RegisterChessServiceServer(s, NewServer(gm, 0))

	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
		lis.Close()
	})
	return NewClient(conn)
}

func createGame(t *testing.T, c *Client) float64 {
	t.Helper()
	resp, err := c.Call(context.Background(), "CreateGame", nil)
	require.NoError(t, err)
	return resp.Fields[fieldGameID].GetNumberValue()
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), "error: %v", err)
}

func TestPing(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})

	resp, err := c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Fields["message"].GetStringValue())
	assert.Equal(t, float64(0), resp.Fields["sessions"].GetNumberValue())
}

func TestCreateGame(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{MaxSessions: 2})
	ctx := context.Background()

	resp, err := c.Call(ctx, "CreateGame", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.Fields[fieldGameID].GetNumberValue())
	assert.Equal(t, notation.StartPosition, resp.Fields[fieldFEN].GetStringValue())
	assert.Contains(t, resp.Fields["board"].GetStringValue(), "8 ♜ ♞ ♝ ♛ ♚ ♝ ♞ ♜ ")

	resp, err = c.Call(ctx, "CreateGame", map[string]interface{}{fieldFEN: "4k3/8/8/8/8/8/8/4K3 w - - 0 1"})
	require.NoError(t, err)
	assert.Equal(t, float64(2), resp.Fields[fieldGameID].GetNumberValue())

	_, err = c.Call(ctx, "CreateGame", nil)
	requireCode(t, err, codes.ResourceExhausted)
}

func TestCreateGame_BadFEN(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	_, err := c.Call(context.Background(), "CreateGame", map[string]interface{}{fieldFEN: "8/8 w"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestGetGameState(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	id := createGame(t, c)

	resp, err := c.Call(context.Background(), "GetGameState", map[string]interface{}{fieldGameID: id})
	require.NoError(t, err)

	f := resp.Fields
	assert.Equal(t, "Idle", f["phase"].GetStringValue())
	assert.Equal(t, "white", f["active"].GetStringValue())
	assert.False(t, f["started"].GetBoolValue())
	assert.Equal(t, float64(33), f["plies"].GetNumberValue())
	assert.Len(t, f["pieces"].GetListValue().GetValues(), 32)
	_, untimed := f["p1_clock"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, untimed)

	_, err = c.Call(context.Background(), "GetGameState", map[string]interface{}{fieldGameID: 99})
	requireCode(t, err, codes.NotFound)

	_, err = c.Call(context.Background(), "GetGameState", nil)
	requireCode(t, err, codes.InvalidArgument)

	_, err = c.Call(context.Background(), "GetGameState", map[string]interface{}{fieldGameID: 1.5})
	requireCode(t, err, codes.InvalidArgument)
}

func TestGetVision(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	id := createGame(t, c)
	ctx := context.Background()

	resp, err := c.Call(ctx, "GetVision", map[string]interface{}{fieldGameID: id, fieldPieceID: 2})
	require.NoError(t, err)
	visions := resp.Fields["visions"].GetListValue().GetValues()
	require.Len(t, visions, 1)

	var dests []string
	for _, m := range visions[0].GetStructValue().Fields["moves"].GetListValue().GetValues() {
		dests = append(dests, m.GetStructValue().Fields["dest"].GetStringValue())
	}
	assert.Equal(t, []string{"b1", "c3", "a3"}, dests)

	resp, err = c.Call(ctx, "GetVision", map[string]interface{}{fieldGameID: id, fieldSide: "black"})
	require.NoError(t, err)
	assert.Len(t, resp.Fields["visions"].GetListValue().GetValues(), 16)

	resp, err = c.Call(ctx, "GetVision", map[string]interface{}{fieldGameID: id})
	require.NoError(t, err)
	assert.Len(t, resp.Fields["visions"].GetListValue().GetValues(), 32)

	_, err = c.Call(ctx, "GetVision", map[string]interface{}{fieldGameID: id, fieldPieceID: 17})
	requireCode(t, err, codes.InvalidArgument)

	_, err = c.Call(ctx, "GetVision", map[string]interface{}{fieldGameID: id, fieldSide: "green"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestGetLayout(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	id := createGame(t, c)

	resp, err := c.Call(context.Background(), "GetLayout", map[string]interface{}{fieldGameID: id})
	require.NoError(t, err)
	tiles := resp.Fields["tiles"].GetListValue().GetValues()
	require.Len(t, tiles, 64)

	a1 := tiles[0].GetStructValue().Fields
	assert.Equal(t, "a1", a1["square"].GetStringValue())
	assert.Equal(t, "dark", a1["shade"].GetStringValue())
	assert.Equal(t, "black", a1["endzone"].GetStringValue())
	assert.Equal(t, float64(1), a1["occupant"].GetNumberValue())

	e4 := tiles[28].GetStructValue().Fields
	assert.Equal(t, "e4", e4["square"].GetStringValue())
	assert.NotContains(t, e4, "occupant")
	assert.NotContains(t, e4, "endzone")
}

func TestSubmitMove_TurnFlow(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	id := createGame(t, c)
	ctx := context.Background()

	resp, err := c.Call(ctx, "SubmitMove", map[string]interface{}{
		fieldGameID: id, fieldPlayer: "white", fieldPieceID: 13, fieldTo: "e4",
	})
	require.NoError(t, err)
	move := resp.Fields["move"].GetStructValue().Fields
	assert.Equal(t, "e2", move["from"].GetStringValue())
	assert.Equal(t, "e4", move[fieldTo].GetStringValue())

	_, err = c.Call(ctx, "SubmitMove", map[string]interface{}{
		fieldGameID: id, fieldPlayer: "white", fieldPieceID: 12, fieldMoveOp: 1,
	})
	requireCode(t, err, codes.FailedPrecondition)

	_, err = c.Call(ctx, "EndTurn", map[string]interface{}{fieldGameID: id, fieldPlayer: "black"})
	requireCode(t, err, codes.FailedPrecondition)

	resp, err = c.Call(ctx, "EndTurn", map[string]interface{}{fieldGameID: id, fieldPlayer: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Running", resp.Fields["phase"].GetStringValue())

	_, err = c.Call(ctx, "SubmitMove", map[string]interface{}{
		fieldGameID: id, fieldPlayer: "black", fieldPieceID: -12,
	})
	requireCode(t, err, codes.InvalidArgument)

	resp, err = c.Call(ctx, "SubmitMove", map[string]interface{}{
		fieldGameID: id, fieldPlayer: "black", fieldPieceID: -12, fieldMoveOp: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "e5", resp.Fields["move"].GetStructValue().Fields[fieldTo].GetStringValue())
}

func TestSubmitMove_Idempotency(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	id := createGame(t, c)
	ctx := context.Background()

	req := map[string]interface{}{
		fieldGameID: id, fieldPlayer: "white", fieldPieceID: 13, fieldTo: "e4",
		fieldIdempotencyKey: "move-1",
	}
	first, err := c.Call(ctx, "SubmitMove", req)
	require.NoError(t, err)
	retried, err := c.Call(ctx, "SubmitMove", req)
	require.NoError(t, err, "a retried key replays the first answer")
	assert.Equal(t, first.AsMap(), retried.AsMap())

	state, err := c.Call(ctx, "GetGameState", map[string]interface{}{fieldGameID: id})
	require.NoError(t, err)
	assert.Equal(t, float64(34), state.Fields["plies"].GetNumberValue(), "the move was applied once")

	// rejections are replayed too
	bad := map[string]interface{}{
		fieldGameID: id, fieldPlayer: "white", fieldPieceID: 12, fieldTo: "d4",
		fieldIdempotencyKey: "move-2",
	}
	_, err = c.Call(ctx, "SubmitMove", bad)
	requireCode(t, err, codes.FailedPrecondition)
	_, err = c.Call(ctx, "SubmitMove", bad)
	requireCode(t, err, codes.FailedPrecondition)

	// keys are scoped per player
	_, err = c.Call(ctx, "EndTurn", map[string]interface{}{fieldGameID: id, fieldPlayer: "white"})
	require.NoError(t, err)
	resp, err := c.Call(ctx, "SubmitMove", map[string]interface{}{
		fieldGameID: id, fieldPlayer: "black", fieldPieceID: -12, fieldTo: "e5",
		fieldIdempotencyKey: "move-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "e5", resp.Fields["move"].GetStructValue().Fields[fieldTo].GetStringValue())
}

func TestPromoteAndForfeit(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})
	ctx := context.Background()

	created, err := c.Call(ctx, "CreateGame", map[string]interface{}{fieldFEN: "1P2k3/8/8/8/8/8/8/4K3 w - - 0 1"})
	require.NoError(t, err)
	id := created.Fields[fieldGameID].GetNumberValue()

	_, err = c.Call(ctx, "Promote", map[string]interface{}{fieldGameID: id, fieldPlayer: "white", fieldPieceID: 2})
	requireCode(t, err, codes.InvalidArgument)
	_, err = c.Call(ctx, "Promote", map[string]interface{}{fieldGameID: id, fieldPlayer: "white", fieldPieceID: 1, fieldPromotion: "q"})
	requireCode(t, err, codes.FailedPrecondition)
	_, err = c.Call(ctx, "Promote", map[string]interface{}{fieldGameID: id, fieldPlayer: "white", fieldPieceID: 2, fieldPromotion: "rook"})
	require.NoError(t, err)

	resp, err := c.Call(ctx, "Forfeit", map[string]interface{}{fieldGameID: id, fieldPlayer: "black"})
	require.NoError(t, err)
	assert.Equal(t, "Ended", resp.Fields["phase"].GetStringValue())

	state, err := c.Call(ctx, "GetGameState", map[string]interface{}{fieldGameID: id})
	require.NoError(t, err)
	assert.Equal(t, "white", state.Fields["winner"].GetStringValue())

	_, err = c.Call(ctx, "SubmitMove", map[string]interface{}{fieldGameID: id, fieldPlayer: "white", fieldPieceID: 1, fieldTo: "e2"})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestRequestIDHeader(t *testing.T) {
	c := setupTestServer(t, gamemaster.Config{})

	var header metadata.MD
	_, err := c.Call(context.Background(), "Ping", nil, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(RequestIDHeader), 1)
	assert.NotEmpty(t, header.Get(RequestIDHeader)[0])

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-42")
	_, err = c.Call(ctx, "Ping", nil, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDHeader))
}
