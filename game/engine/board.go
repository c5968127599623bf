package engine

import (
	"fmt"
	"sort"
)

// Board is the fixed square grid of placed tiles plus the tokens still in
// play. Token positions are stored only here, keyed by color.
type Board struct {
	cells  [BoardSize][BoardSize]*Tile
	tokens map[Color]Token
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{tokens: make(map[Color]Token)}
}

// Size returns the side length of the grid
func (b *Board) Size() int {
	return BoardSize
}

// Clone returns an independent copy. Placed tiles are never mutated in place,
// so the copy may share them.
func (b *Board) Clone() *Board {
	c := &Board{cells: b.cells, tokens: make(map[Color]Token, len(b.tokens))}
	for color, tok := range b.tokens {
		c.tokens[color] = tok
	}
	return c
}

// TileAt returns the tile at pos; false for empty cells and positions off the grid
func (b *Board) TileAt(pos Position) (Tile, bool) {
	if !pos.InGrid() {
		return Tile{}, false
	}
	t := b.cells[pos.Y][pos.X]
	if t == nil {
		return Tile{}, false
	}
	return *t, true
}

// PlaceTile puts a copy of t on an empty cell
func (b *Board) PlaceTile(t Tile, pos Position) error {
	if !pos.InGrid() {
		return fmt.Errorf("%w: %s", ErrOutOfGrid, pos)
	}
	if b.cells[pos.Y][pos.X] != nil {
		return fmt.Errorf("%w: %s", ErrCellOccupied, pos)
	}
	placed := t
	b.cells[pos.Y][pos.X] = &placed
	return nil
}

// RemoveTile clears a cell and returns the tile that was there
func (b *Board) RemoveTile(pos Position) (Tile, error) {
	if !pos.InGrid() {
		return Tile{}, fmt.Errorf("%w: %s", ErrOutOfGrid, pos)
	}
	t := b.cells[pos.Y][pos.X]
	if t == nil {
		return Tile{}, fmt.Errorf("%w: %s", ErrCellEmpty, pos)
	}
	b.cells[pos.Y][pos.X] = nil
	return *t, nil
}

// AdjacentCell returns the cell the token faces: top points look up, right
// points look right, bottom points look down, left points look left.
func (b *Board) AdjacentCell(tok Token) Position {
	p := tok.Pos
	switch tok.Index {
	case 0, 1:
		return Position{X: p.X, Y: p.Y - 1}
	case 2, 3:
		return Position{X: p.X + 1, Y: p.Y}
	case 4, 5:
		return Position{X: p.X, Y: p.Y + 1}
	default:
		return Position{X: p.X - 1, Y: p.Y}
	}
}

// IsBoardEdge reports whether the token sits on an outer edge of the grid
// facing outwards. Tile occupancy is irrelevant.
func (b *Board) IsBoardEdge(tok Token) bool {
	x, y := tok.Pos.X, tok.Pos.Y
	switch tok.Index {
	case 0, 1:
		return y == 0
	case 2, 3:
		return x == BoardSize-1
	case 4, 5:
		return y == BoardSize-1
	case 6, 7:
		return x == 0
	}
	return false
}

// IsFull reports whether every cell holds a tile
func (b *Board) IsFull() bool {
	return b.TileCount() == BoardSize*BoardSize
}

// TileCount returns the number of placed tiles
func (b *Board) TileCount() int {
	count := 0
	for y := range b.cells {
		for x := range b.cells[y] {
			if b.cells[y][x] != nil {
				count++
			}
		}
	}
	return count
}

// PlacedTile pairs a tile with the cell it occupies
type PlacedTile struct {
	Pos  Position
	Tile Tile
}

// Tiles lists placed tiles row by row
func (b *Board) Tiles() []PlacedTile {
	var placed []PlacedTile
	for y := range b.cells {
		for x := range b.cells[y] {
			if t := b.cells[y][x]; t != nil {
				placed = append(placed, PlacedTile{Pos: Position{X: x, Y: y}, Tile: *t})
			}
		}
	}
	return placed
}

// ContainsShape reports whether a tile shaped like t is on the board
func (b *Board) ContainsShape(t Tile) bool {
	for _, p := range b.Tiles() {
		if p.Tile.IsSameShape(t) {
			return true
		}
	}
	return false
}

// PlaceToken adds a token for a color that has none yet
func (b *Board) PlaceToken(tok Token) error {
	if _, exists := b.tokens[tok.Color]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateToken, tok.Color)
	}
	if other, taken := b.TokenAt(tok.Pos, tok.Index); taken {
		return fmt.Errorf("%w: %s held by %s", ErrTokenCollision, tok, other.Color)
	}
	b.tokens[tok.Color] = tok
	return nil
}

// MoveToken replaces the stored token for tok.Color
func (b *Board) MoveToken(tok Token) error {
	if _, exists := b.tokens[tok.Color]; !exists {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, tok.Color)
	}
	b.tokens[tok.Color] = tok
	return nil
}

// RemoveToken takes a color's token out of play
func (b *Board) RemoveToken(color Color) (Token, error) {
	tok, exists := b.tokens[color]
	if !exists {
		return Token{}, fmt.Errorf("%w: %s", ErrTokenNotFound, color)
	}
	delete(b.tokens, color)
	return tok, nil
}

// Token returns the token for color
func (b *Board) Token(color Color) (Token, bool) {
	tok, ok := b.tokens[color]
	return tok, ok
}

// TokenAt returns the token resting at (pos, index), if any
func (b *Board) TokenAt(pos Position, index int) (Token, bool) {
	for _, tok := range b.tokens {
		if tok.Pos == pos && tok.Index == index {
			return tok, true
		}
	}
	return Token{}, false
}

// Tokens lists tokens in color order
func (b *Board) Tokens() []Token {
	tokens := make([]Token, 0, len(b.tokens))
	for _, tok := range b.tokens {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Color < tokens[j].Color })
	return tokens
}
