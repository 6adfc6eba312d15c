package rules

import "fmt"

// Direction is a displacement relative to the moving piece's orientation: forward
// always points away from the owner's back rank.
type Direction int

const (
	DirNil Direction = iota
	DirForward
	DirBackward
	DirRight
	DirLeft
	DirForwardRight
	DirForwardLeft
	DirBackwardRight
	DirBackwardLeft
	DirForwardTwoRightOne
	DirForwardOneRightTwo
	DirBackwardOneRightTwo
	DirBackwardTwoRightOne
	DirBackwardTwoLeftOne
	DirBackwardOneLeftTwo
	DirForwardOneLeftTwo
	DirForwardTwoLeftOne
)

var directionNames = map[Direction]string{
	DirNil:                 "nil",
	DirForward:             "forward",
	DirBackward:            "backward",
	DirRight:               "right",
	DirLeft:                "left",
	DirForwardRight:        "forward_right",
	DirForwardLeft:         "forward_left",
	DirBackwardRight:       "backward_right",
	DirBackwardLeft:        "backward_left",
	DirForwardTwoRightOne:  "forward_two_right_one",
	DirForwardOneRightTwo:  "forward_one_right_two",
	DirBackwardOneRightTwo: "backward_one_right_two",
	DirBackwardTwoRightOne: "backward_two_right_one",
	DirBackwardTwoLeftOne:  "backward_two_left_one",
	DirBackwardOneLeftTwo:  "backward_one_left_two",
	DirForwardOneLeftTwo:   "forward_one_left_two",
	DirForwardTwoLeftOne:   "forward_two_left_one",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// offset is a (file, rank) step in the normalized frame.
type offset struct {
	df, dr int
}

// directionVectors gives the unit step for every direction.
var directionVectors = map[Direction]offset{
	DirNil:                 {0, 0},
	DirForward:             {0, 1},
	DirBackward:            {0, -1},
	DirRight:               {1, 0},
	DirLeft:                {-1, 0},
	DirForwardRight:        {1, 1},
	DirForwardLeft:         {-1, 1},
	DirBackwardRight:       {1, -1},
	DirBackwardLeft:        {-1, -1},
	DirForwardTwoRightOne:  {1, 2},
	DirForwardOneRightTwo:  {2, 1},
	DirBackwardOneRightTwo: {2, -1},
	DirBackwardTwoRightOne: {1, -2},
	DirBackwardTwoLeftOne:  {-1, -2},
	DirBackwardOneLeftTwo:  {-2, -1},
	DirForwardOneLeftTwo:   {-2, 1},
	DirForwardTwoLeftOne:   {-1, 2},
}

// Direction sets in enumeration order. Vision lists moves in exactly this order.
var (
	orthogonalDirections = []Direction{DirForward, DirRight, DirBackward, DirLeft}
	diagonalDirections   = []Direction{DirForwardRight, DirBackwardRight, DirBackwardLeft, DirForwardLeft}
	royalDirections      = []Direction{
		DirForward, DirForwardRight, DirRight, DirBackwardRight,
		DirBackward, DirBackwardLeft, DirLeft, DirForwardLeft,
	}
	knightDirections = []Direction{
		DirForwardTwoRightOne, DirForwardOneRightTwo, DirBackwardOneRightTwo, DirBackwardTwoRightOne,
		DirBackwardTwoLeftOne, DirBackwardOneLeftTwo, DirForwardOneLeftTwo, DirForwardTwoLeftOne,
	}
)
