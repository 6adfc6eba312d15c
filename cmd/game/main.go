package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/config"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/logging"
)

// Headless demo: plays random moves through the command layer and checks that
// the history replays to the same position.
func main() {
	seed := flag.Int64("seed", 1, "Random seed")
	plies := flag.Int("plies", 40, "Maximum number of moves to play")
	fen := flag.String("fen", "", "Start from this FEN instead of the standard setup")
	logLevel := flag.String("log-level", "warn", "Log level")
	color := flag.Bool("color", true, "Colored board output")
	flag.Parse()

	closer := logging.Setup(config.LoggingConfig{Level: *logLevel, Format: logging.FormatConsole})
	defer closer.Close()

	ctx := context.Background()
	gm := gamemaster.New(gamemaster.Config{}, log.Logger)
	rng := rand.New(rand.NewSource(*seed))

	created, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdNewGame, FEN: *fen})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create game")
	}
	id := created.Game

	for ply := 0; ply < *plies; ply++ {
		view, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdSpectate, Game: id})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to spectate")
		}
		gs := view.State
		if gs.Finished || gs.Active == nil {
			break
		}
		player := *gs.Active

		all, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdRequestVisionAll, Game: id, Side: &player})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to request vision")
		}
		var movable []int
		for i, vp := range all.Visions {
			if vp.Len() > 1 {
				movable = append(movable, i)
			}
		}
		if len(movable) == 0 {
			fmt.Printf("%s has no moves and forfeits\n", player)
			if _, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdForfeit, Game: id, Player: player}); err != nil {
				log.Fatal().Err(err).Msg("Failed to forfeit")
			}
			break
		}

		vp := all.Visions[movable[rng.Intn(len(movable))]]
		op := 1 + rng.Intn(vp.Len()-1)
		resp, err := gm.Dispatch(ctx, gamemaster.Command{
			Kind:   gamemaster.CmdSubmitMove,
			Game:   id,
			Player: player,
			Piece:  vp.PieceID,
			MoveOp: op,
		})
		if err != nil {
			log.Fatal().Err(err).Int("ply", ply).Msg("Move rejected")
		}
		after, err := gm.RequestGameState(id)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read state")
		}
		printMove(ply+1, player, resp.Move)
		fmt.Println(game.RenderWith(after, game.RenderOptions{
			Color:     *color,
			Highlight: vp.Destinations()[1:],
		}))

		if after.Finished {
			break
		}
		if _, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdEndTurn, Game: id, Player: player}); err != nil {
			log.Fatal().Err(err).Msg("Failed to end turn")
		}
	}

	final, err := gm.Dispatch(ctx, gamemaster.Command{Kind: gamemaster.CmdSpectate, Game: id})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to spectate")
	}
	fmt.Printf("Phase: %s\nFEN: %s\n", final.Phase, final.FEN)
	if final.State.Winner != nil {
		fmt.Printf("Winner: %s (%s)\n", *final.State.Winner, final.State.EndReason)
	}

	replayed, err := game.Replay(final.State.History, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}
	if !replayed.Board.Equal(final.State.Board) {
		fmt.Println("Replay diverged from the live board")
		os.Exit(1)
	}
	fmt.Printf("Replay of %d actions matches\n", final.State.History.Len())
}

func printMove(ply int, player core.PlayerID, m *core.MoveAction) {
	capture := ""
	if m.Capture {
		capture = " capture"
	}
	fmt.Printf("Ply %d: %s piece %d %s -> %s%s\n", ply, player, m.Piece, m.From, m.To, capture)
}
