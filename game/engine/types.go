package engine

import (
	"fmt"
	"strings"
)

const (
	// Rules constants
	BoardSize        = 6
	PointsPerTile    = 8
	MaxHandSize      = 3
	StartingHandSize = 3
	MinPlayers       = 2
	MaxPlayers       = 8
	Rotations        = 4
)

// Color identifies a player's token. Colors are assigned in join order.
type Color int

const (
	Blue Color = iota
	Red
	Green
	Orange
	Sienna
	HotPink
	DarkGreen
	Purple
)

var colorNames = []string{"blue", "red", "green", "orange", "sienna", "hotpink", "darkgreen", "purple"}

// String returns the color name used on the wire and in logs
func (c Color) String() string {
	if c.Valid() {
		return colorNames[c]
	}
	return fmt.Sprintf("color_%d", int(c))
}

// Valid reports whether the color is one of the eight player colors
func (c Color) Valid() bool {
	return c >= Blue && c <= Purple
}

// MarshalText encodes the color by name
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColor, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a color name
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor converts a color name (case-insensitive) to a Color
func ParseColor(name string) (Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColor, name)
}

// Position represents x,y coordinates. Cells are 0..BoardSize-1; phantom
// starting positions sit one step outside the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InGrid reports whether the position is a board cell
func (p Position) InGrid() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Phase is the whole-game lifecycle state
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInProgress
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:      "setup",
	PhaseInProgress: "in_progress",
	PhaseGameOver:   "game_over",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase_%d", int(p))
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// SeatKind tells which variant of Player occupies a seat. A seat becomes
// SeatReplaced when its player is caught breaking the rules.
type SeatKind int

const (
	SeatInteractive SeatKind = iota
	SeatAutomated
	SeatRemote
	SeatReplaced
)

var seatKindNames = map[SeatKind]string{
	SeatInteractive: "interactive",
	SeatAutomated:   "automated",
	SeatRemote:      "remote",
	SeatReplaced:    "replaced",
}

func (k SeatKind) String() string {
	if name, ok := seatKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("seat_%d", int(k))
}

// MarshalText encodes the seat kind by name
func (k SeatKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a seat kind name
func (k *SeatKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSeatKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseSeatKind converts a seat kind name to a SeatKind. "human" is accepted
// as an alias for interactive.
func ParseSeatKind(name string) (SeatKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "interactive", "human":
		return SeatInteractive, nil
	case "automated", "machine", "":
		return SeatAutomated, nil
	case "remote":
		return SeatRemote, nil
	case "replaced":
		return SeatReplaced, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeatKind, name)
}
