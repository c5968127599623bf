package engine

import "fmt"

// Token is a player's marker: the cell it occupies (or is about to enter from
// a phantom position) and the edge point it rests on.
type Token struct {
	Color Color    `json:"color"`
	Pos   Position `json:"position"`
	Index int      `json:"index"`
}

// NewToken validates the edge point and the position. The position must be a
// grid cell or a phantom starting position.
func NewToken(color Color, pos Position, index int) (Token, error) {
	if !color.Valid() {
		return Token{}, fmt.Errorf("%w: %d", ErrInvalidColor, int(color))
	}
	if index < 0 || index >= PointsPerTile {
		return Token{}, fmt.Errorf("%w: %d", ErrInvalidEdgePoint, index)
	}
	tok := Token{Color: color, Pos: pos, Index: index}
	if !pos.InGrid() && !tok.IsStartingPosition() {
		return Token{}, fmt.Errorf("%w: %s index %d", ErrIllegalStart, pos, index)
	}
	return tok, nil
}

// IsStartingPosition reports whether the token sits on a phantom position one
// step outside the grid, on one of the two points facing into it.
func (t Token) IsStartingPosition() bool {
	x, y, i := t.Pos.X, t.Pos.Y, t.Index
	inRange := func(v int) bool { return v >= 0 && v < BoardSize }
	switch {
	case x == -1 && inRange(y):
		return i == 2 || i == 3
	case x == BoardSize && inRange(y):
		return i == 6 || i == 7
	case y == -1 && inRange(x):
		return i == 4 || i == 5
	case y == BoardSize && inRange(x):
		return i == 0 || i == 1
	}
	return false
}

// SamePlace reports whether two tokens share coordinate and edge point
func (t Token) SamePlace(other Token) bool {
	return t.Pos == other.Pos && t.Index == other.Index
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s:%d", t.Color, t.Pos, t.Index)
}

// facing maps an edge point to the point it touches on the neighbouring cell
var facing = [PointsPerTile]int{5, 4, 7, 6, 1, 0, 3, 2}

// FacingPoint returns the point on the adjacent cell that touches point
func FacingPoint(point int) (int, error) {
	if point < 0 || point >= PointsPerTile {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEdgePoint, point)
	}
	return facing[point], nil
}

// PhantomPositions lists every legal starting token for color, clockwise from
// the top-left phantom cell.
func PhantomPositions(color Color) []Token {
	tokens := make([]Token, 0, 8*BoardSize)
	for x := 0; x < BoardSize; x++ {
		for _, i := range []int{4, 5} {
			tokens = append(tokens, Token{Color: color, Pos: Position{X: x, Y: -1}, Index: i})
		}
	}
	for y := 0; y < BoardSize; y++ {
		for _, i := range []int{7, 6} {
			tokens = append(tokens, Token{Color: color, Pos: Position{X: BoardSize, Y: y}, Index: i})
		}
	}
	for x := BoardSize - 1; x >= 0; x-- {
		for _, i := range []int{1, 0} {
			tokens = append(tokens, Token{Color: color, Pos: Position{X: x, Y: BoardSize}, Index: i})
		}
	}
	for y := BoardSize - 1; y >= 0; y-- {
		for _, i := range []int{2, 3} {
			tokens = append(tokens, Token{Color: color, Pos: Position{X: -1, Y: y}, Index: i})
		}
	}
	return tokens
}
