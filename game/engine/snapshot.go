package engine

import (
	"encoding/json"
	"fmt"
)

// TileView is the serializable form of a tile
type TileView struct {
	ID       int      `json:"id"`
	Rotation int      `json:"rotation"`
	Paths    [][2]int `json:"paths"`
}

// PlacedTileView is a tile on a cell
type PlacedTileView struct {
	Position Position `json:"position"`
	Tile     TileView `json:"tile"`
}

// BoardView is the serializable form of a board
type BoardView struct {
	Size   int              `json:"size"`
	Tiles  []PlacedTileView `json:"tiles"`
	Tokens []Token          `json:"tokens"`
}

// SeatView describes a seat without exposing its player
type SeatView struct {
	Name           string     `json:"name"`
	Color          Color      `json:"color"`
	Kind           SeatKind   `json:"kind"`
	Hand           []TileView `json:"hand"`
	Token          *Token     `json:"token,omitempty"`
	Eliminated     bool       `json:"eliminated"`
	ReplacedReason string     `json:"replaced_reason,omitempty"`
}

// GameState is a point-in-time copy of the whole game
type GameState struct {
	Phase        Phase      `json:"phase"`
	Turn         int        `json:"turn"`
	Board        BoardView  `json:"board"`
	Seats        []SeatView `json:"seats"`
	Current      *Color     `json:"current,omitempty"`
	TurnOrder    []Color    `json:"turn_order"`
	DragonHolder *Color     `json:"dragon_holder,omitempty"`
	PileSize     int        `json:"pile_size"`
	Winners      []Color    `json:"winners,omitempty"`
}

// View converts a tile to its serializable form
func (t Tile) View() TileView {
	p := canonical(t.paths)
	paths := make([][2]int, len(p))
	copy(paths, p[:])
	return TileView{ID: t.ID, Rotation: t.rotation, Paths: paths}
}

// MarshalJSON encodes the tile as its view
func (t Tile) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.View())
}

// UnmarshalJSON decodes a view back into a catalogue tile
func (t *Tile) UnmarshalJSON(data []byte) error {
	var v TileView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := TileFromView(v)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TileFromView rebuilds a tile from its serialized paths. The ID is resolved
// from the catalogue; the view's ID and rotation fields are ignored.
func TileFromView(v TileView) (Tile, error) {
	var paths Paths
	if len(v.Paths) != len(paths) {
		return Tile{}, ErrInvalidTile
	}
	copy(paths[:], v.Paths)
	return TileFromPaths(paths)
}

// View converts the board to its serializable form
func (b *Board) View() BoardView {
	view := BoardView{Size: BoardSize, Tiles: []PlacedTileView{}, Tokens: b.Tokens()}
	for _, p := range b.Tiles() {
		view.Tiles = append(view.Tiles, PlacedTileView{Position: p.Pos, Tile: p.Tile.View()})
	}
	return view
}

// BoardFromView rebuilds a board from its serialized form. Tokens may share
// a point, as they can during play.
func BoardFromView(v BoardView) (*Board, error) {
	b := NewBoard()
	for _, p := range v.Tiles {
		t, err := TileFromView(p.Tile)
		if err != nil {
			return nil, fmt.Errorf("tile at %s: %w", p.Position, err)
		}
		if err := b.PlaceTile(t, p.Position); err != nil {
			return nil, err
		}
	}
	for _, tok := range v.Tokens {
		if _, err := NewToken(tok.Color, tok.Pos, tok.Index); err != nil {
			return nil, err
		}
		if _, exists := b.tokens[tok.Color]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateToken, tok.Color)
		}
		b.tokens[tok.Color] = tok
	}
	return b, nil
}

// Snapshot copies the engine state
func (e *GameEngine) Snapshot() GameState {
	state := GameState{
		Phase:     e.phase,
		Turn:      e.turn,
		Board:     e.board.View(),
		PileSize:  e.deck.Len(),
		TurnOrder: make([]Color, 0, len(e.active)),
		Winners:   e.WinnerColors(),
	}
	for _, s := range e.active {
		state.TurnOrder = append(state.TurnOrder, s.Color)
	}
	if e.phase == PhaseInProgress && len(e.active) > 0 {
		c := e.active[0].Color
		state.Current = &c
	}
	if e.dragon != nil {
		c := e.dragon.Color
		state.DragonHolder = &c
	}
	for _, s := range e.seats {
		state.Seats = append(state.Seats, s.View(e.board, containsSeat(e.eliminated, s)))
	}
	return state
}

// View describes the seat against board
func (s *Seat) View(b *Board, eliminated bool) SeatView {
	view := SeatView{
		Name:           s.Name,
		Color:          s.Color,
		Kind:           s.Kind,
		Hand:           []TileView{},
		Eliminated:     eliminated,
		ReplacedReason: s.ReplacedReason,
	}
	for _, t := range s.Hand.Tiles() {
		view.Hand = append(view.Hand, t.View())
	}
	if tok, ok := b.Token(s.Color); ok {
		view.Token = &tok
	} else if s.Final != nil {
		tok := *s.Final
		view.Token = &tok
	}
	return view
}
