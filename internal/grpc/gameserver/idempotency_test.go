package gameserver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestIdempotencyWithSameKey(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	resp, err := structpb.NewStruct(map[string]interface{}{"ok": true})
	require.NoError(t, err)

	_, ok := im.Check(1, core.PlayerOne, "k")
	assert.False(t, ok)

	im.Store(1, core.PlayerOne, "k", Outcome{Response: resp})
	got, ok := im.Check(1, core.PlayerOne, "k")
	require.True(t, ok)
	assert.Same(t, resp, got.Response)
	assert.NoError(t, got.Err)
}

func TestIdempotencyForErrors(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	rejected := status.Error(codes.FailedPrecondition, "rejected")

	im.Store(1, core.PlayerOne, "k", Outcome{Err: rejected})
	got, ok := im.Check(1, core.PlayerOne, "k")
	require.True(t, ok)
	assert.Nil(t, got.Response)
	assert.Same(t, rejected, got.Err)
}

func TestIdempotencyScopes(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	im.Store(1, core.PlayerOne, "shared", Outcome{})

	tests := []struct {
		name   string
		game   gamemaster.GameID
		player core.PlayerID
		key    string
		want   bool
	}{
		{"same request", 1, core.PlayerOne, "shared", true},
		{"other player", 1, core.PlayerTwo, "shared", false},
		{"other game", 2, core.PlayerOne, "shared", false},
		{"other key", 1, core.PlayerOne, "other", false},
		{"empty key", 1, core.PlayerOne, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := im.Check(tt.game, tt.player, tt.key)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIdempotencyEmptyKeyNotStored(t *testing.T) {
	im := NewIdempotencyManager(0)
	im.Store(1, core.PlayerOne, "", Outcome{})
	assert.Equal(t, 0, im.Len())
	assert.Equal(t, DefaultIdempotencyTTL, im.ttl)
}

func TestIdempotencyExpiry(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	now, advance := fakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	im.now = now

	im.Store(1, core.PlayerOne, "old", Outcome{})
	advance(30 * time.Second)
	im.Store(1, core.PlayerOne, "new", Outcome{})
	advance(45 * time.Second)

	_, ok := im.Check(1, core.PlayerOne, "old")
	assert.False(t, ok, "expired entries are not replayed")
	_, ok = im.Check(1, core.PlayerOne, "new")
	assert.True(t, ok)

	im.Sweep()
	assert.Equal(t, 1, im.Len())
}

func TestIdempotencySweepsWhenLarge(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	now, advance := fakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	im.now = now

	for i := 0; i < idempotencySweepSize; i++ {
		im.Store(1, core.PlayerOne, fmt.Sprintf("key-%d", i), Outcome{})
	}
	advance(2 * time.Minute)
	im.Store(1, core.PlayerOne, "fresh", Outcome{})
	assert.Equal(t, 1, im.Len())
}

func TestIdempotencySkipsTransientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"canceled", context.Canceled},
		{"deadline", context.DeadlineExceeded},
		{"canceled status", status.Error(codes.Canceled, "context canceled")},
		{"unavailable", status.Error(codes.Unavailable, "down")},
		{"internal", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := NewIdempotencyManager(time.Minute)
			im.Store(1, core.PlayerOne, "k", Outcome{Err: tt.err})
			_, ok := im.Check(1, core.PlayerOne, "k")
			assert.False(t, ok)
			assert.Equal(t, 0, im.Len())
		})
	}
}

func TestSubmitMove_RetryAfterCancel(t *testing.T) {
	gm := gamemaster.New(gamemaster.Config{}, zerolog.Nop())
	id, err := gm.CreateGame()
	require.NoError(t, err)
	srv := NewServer(gm, time.Minute)

	req, err := structpb.NewStruct(map[string]interface{}{
		fieldGameID: float64(id), fieldPlayer: "white", fieldPieceID: 13, fieldTo: "e4",
		fieldIdempotencyKey: "k1",
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = srv.SubmitMove(cancelled, req)
	assert.Equal(t, codes.Canceled, status.Code(err))

	resp, err := srv.SubmitMove(context.Background(), req)
	require.NoError(t, err, "the retry runs the move")
	require.NotNil(t, resp)

	gs, err := gm.RequestGameState(id)
	require.NoError(t, err)
	pawn, ok := gs.FindPiece(13)
	require.True(t, ok)
	assert.Equal(t, core.E4, pawn.Loc)
	assert.Equal(t, 1, pawn.Moves)
}
