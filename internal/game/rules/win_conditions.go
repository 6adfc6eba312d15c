package rules

import (
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// Reasons a game ends.
const (
	ReasonNone          = ""
	ReasonKingCaptured  = "king_captured"
	ReasonForfeit       = "forfeit"
	ReasonBothKingsLost = "both_kings_lost"
)

// Outcome is the result of a game-over check. Winner is nil while the game is
// running and for a draw.
type Outcome struct {
	Over   bool
	Winner *core.PlayerID
	Reason string
}

// Side is the view of a roster the checker needs. Defined here to avoid an import
// cycle with the game package.
type Side interface {
	HasKing() bool
	Forfeited() bool
}

// WinConditionChecker handles game over detection and winner determination
type WinConditionChecker struct {
	logger zerolog.Logger
}

// NewWinConditionChecker creates a new win condition checker
func NewWinConditionChecker(logger zerolog.Logger) *WinConditionChecker {
	return &WinConditionChecker{
		logger: logger.With().Str("component", "WinConditionChecker").Logger(),
	}
}

// CheckGameOver decides whether the game between p1 (white) and p2 (black) is over.
// A forfeit takes precedence over the board.
func (wc *WinConditionChecker) CheckGameOver(p1, p2 Side) Outcome {
	wc.logger.Debug().Msg("Checking game over conditions")

	var out Outcome
	switch {
	case p1.Forfeited() && p2.Forfeited():
		out = Outcome{Over: true, Reason: ReasonForfeit}
	case p1.Forfeited():
		out = winner(core.PlayerTwo, ReasonForfeit)
	case p2.Forfeited():
		out = winner(core.PlayerOne, ReasonForfeit)
	case !p1.HasKing() && !p2.HasKing():
		out = Outcome{Over: true, Reason: ReasonBothKingsLost}
	case !p1.HasKing():
		out = winner(core.PlayerTwo, ReasonKingCaptured)
	case !p2.HasKing():
		out = winner(core.PlayerOne, ReasonKingCaptured)
	}

	if out.Over && out.Winner != nil {
		wc.logger.Info().Str("winner", out.Winner.String()).Str("reason", out.Reason).Msg("Winner determined")
	} else if out.Over {
		wc.logger.Info().Str("reason", out.Reason).Msg("Game over without a winner")
	}
	wc.logger.Debug().Bool("is_game_over", out.Over).Msg("Game over check complete")
	return out
}

func winner(p core.PlayerID, reason string) Outcome {
	return Outcome{Over: true, Winner: &p, Reason: reason}
}
