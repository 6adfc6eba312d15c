package states

import (
	"fmt"
	"time"
)

// IdleState is a created game waiting for its first move
type IdleState struct{}

func NewIdleState() State {
	return &IdleState{}
}

func (s *IdleState) Phase() GamePhase {
	return PhaseIdle
}

func (s *IdleState) Enter(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Game created, waiting for the first move")
	return nil
}

func (s *IdleState) Exit(ctx *GameContext) error {
	return nil
}

func (s *IdleState) Validate(ctx *GameContext) error {
	return nil
}

// RunningState represents active play
type RunningState struct{}

func NewRunningState() State {
	return &RunningState{}
}

func (s *RunningState) Phase() GamePhase {
	return PhaseRunning
}

func (s *RunningState) Enter(ctx *GameContext) error {
	if ctx.StartTime.IsZero() {
		ctx.StartTime = time.Now()
	}
	ctx.Logger.Info().Time("start_time", ctx.StartTime).Msg("Game running")
	return nil
}

func (s *RunningState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().Dur("elapsed", ctx.GetElapsedTime()).Msg("Leaving running state")
	return nil
}

func (s *RunningState) Validate(ctx *GameContext) error {
	return nil
}

// EndedState is final
type EndedState struct{}

func NewEndedState() State {
	return &EndedState{}
}

func (s *EndedState) Phase() GamePhase {
	return PhaseEnded
}

func (s *EndedState) Enter(ctx *GameContext) error {
	ctx.EndTime = time.Now()
	ctx.Logger.Info().
		Str("winner", ctx.Winner).
		Str("reason", ctx.EndReason).
		Dur("game_duration", ctx.GetElapsedTime()).
		Msg("Game ended")
	return nil
}

func (s *EndedState) Exit(ctx *GameContext) error {
	return fmt.Errorf("cannot leave the ended phase")
}

// Validate requires a reason so every finished game records how it ended
func (s *EndedState) Validate(ctx *GameContext) error {
	if ctx.EndReason == "" {
		return fmt.Errorf("ending a game requires an end reason")
	}
	return nil
}
