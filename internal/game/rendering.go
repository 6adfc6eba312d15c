package game

import (
	"strings"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
)

// ANSI codes for colored board output
const (
	ColorReset = "\033[0m"
	ColorGray  = "\033[90m"
	ColorWhite = "\033[97m"
	ColorRed   = "\033[31m"
)

const emptySymbol = "·"

var pieceSymbols = map[core.Color][6]string{
	core.White: {"♙", "♖", "♘", "♗", "♕", "♔"},
	core.Black: {"♟", "♜", "♞", "♝", "♛", "♚"},
}

// RenderOptions controls Render output.
type RenderOptions struct {
	// Color wraps symbols in ANSI codes
	Color bool
	// Perspective puts this player's back rank at the bottom
	Perspective core.PlayerID
	// Highlight marks tiles, e.g. a piece's vision, with a red dot when empty
	Highlight []core.TileID
}

// Render draws the board as text with rank 8 at the top, files a..h left to right.
// Stale references render as empty tiles.
func Render(gs *GameState) string {
	return RenderWith(gs, RenderOptions{})
}

// RenderWith draws the board with options.
func RenderWith(gs *GameState, opts RenderOptions) string {
	highlight := make(map[core.TileID]bool, len(opts.Highlight))
	for _, t := range opts.Highlight {
		highlight[t] = true
	}

	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	ranks := []int{7, 6, 5, 4, 3, 2, 1, 0}
	if opts.Perspective == core.PlayerTwo {
		files, ranks = ranks, files
	}

	var sb strings.Builder
	sb.Grow(core.TileCount*16 + 64)

	for _, r := range ranks {
		sb.WriteByte(byte('1' + r))
		sb.WriteString(" ")
		for _, f := range files {
			id, _ := core.CoordToIndex(core.NewCoordinate(f, r))
			writeTile(&sb, gs, id, highlight[id], opts.Color)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("  ")
	for _, f := range files {
		sb.WriteByte(byte('a' + f))
		sb.WriteString(" ")
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeTile(sb *strings.Builder, gs *GameState, id core.TileID, marked, color bool) {
	piece, ok := gs.Resolve(id)
	symbol := emptySymbol
	code := ColorGray
	switch {
	case ok:
		symbol = "?"
		if int(piece.Type) < len(pieceSymbols[piece.Color]) {
			symbol = pieceSymbols[piece.Color][piece.Type]
		}
		code = ColorWhite
		if marked {
			code = ColorRed
		}
	case marked:
		symbol = "•"
		code = ColorRed
	}

	if color {
		sb.WriteString(code)
	}
	sb.WriteString(symbol)
	if color {
		sb.WriteString(ColorReset)
	}
	sb.WriteString(" ")
}
