package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPieceID_Color(t *testing.T) {
	tests := []struct {
		id       PieceID
		expected Color
		valid    bool
	}{
		{1, White, true},
		{16, White, true},
		{-1, Black, true},
		{-16, Black, true},
		{0, White, false},
		{17, White, false},
		{-17, White, false},
	}

	for _, tt := range tests {
		color, ok := tt.id.Color()
		assert.Equal(t, tt.valid, ok, "id %d validity", tt.id)
		assert.Equal(t, tt.valid, tt.id.Valid())
		if tt.valid {
			assert.Equal(t, tt.expected, color, "id %d color", tt.id)
		}
	}
}

func TestNewPiece(t *testing.T) {
	p, err := NewPiece(Queen, White, D1, 4)
	require.NoError(t, err)
	assert.Equal(t, PieceID(4), p.ID)
	assert.Equal(t, Queen, p.Type)
	assert.Equal(t, D1, p.Loc)
	assert.False(t, p.HasMoved())

	_, err = NewPiece(Queen, Black, D8, 4)
	assert.ErrorIs(t, err, ErrInvalidPieceID)

	_, err = NewPiece(Pawn, White, A2, 0)
	assert.ErrorIs(t, err, ErrInvalidPieceID)

	_, err = NewPiece(Pawn, White, 64, 9)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestPiece_UpdateLoc(t *testing.T) {
	p, err := NewPiece(Pawn, Black, E7, -12)
	require.NoError(t, err)

	p.UpdateLoc(E5)
	assert.Equal(t, E5, p.Loc)
	assert.True(t, p.HasMoved())
	assert.Equal(t, 1, p.Moves)

	p.SetID(-11)
	assert.Equal(t, PieceID(-11), p.ID)
	assert.Equal(t, "black pawn #-11@e5", p.String())
}

func TestColor(t *testing.T) {
	assert.Equal(t, Black, White.Opponent())
	assert.Equal(t, White, Black.Opponent())
	assert.Equal(t, PlayerOne, White.PlayerID())
	assert.Equal(t, PlayerTwo, Black.PlayerID())
	assert.Equal(t, White, PlayerOne.Color())
	assert.Equal(t, Black, PlayerTwo.Color())
	assert.Equal(t, PlayerTwo, PlayerOne.Other())

	assert.True(t, White.MatchesBackground(Light))
	assert.True(t, Black.MatchesBackground(Dark))
	assert.False(t, White.MatchesBackground(Dark))
	assert.False(t, Black.MatchesBackground(Light))
}

func TestParsePieceType(t *testing.T) {
	tests := []struct {
		in       string
		expected PieceType
	}{
		{"queen", Queen},
		{"Q", Queen},
		{"knight", Knight},
		{"n", Knight},
		{" rook ", Rook},
		{"b", Bishop},
		{"pawn", Pawn},
		{"k", King},
	}
	for _, tt := range tests {
		got, err := ParsePieceType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}

	_, err := ParsePieceType("dragon")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "PieceType(9)", PieceType(9).String())
}
