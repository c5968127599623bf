package config

import (
	"fmt"
	"strings"

	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/player"
)

// PlayerSpec describes one seat of a table
type PlayerSpec struct {
	Name     string `json:"name" mapstructure:"name"`
	Kind     string `json:"kind" mapstructure:"kind"`                   // interactive|automated|remote
	Strategy string `json:"strategy,omitempty" mapstructure:"strategy"` // automated seats only
}

// Preset is a named table roster
type Preset struct {
	ID          string       `json:"id" mapstructure:"-"`
	Name        string       `json:"name" mapstructure:"name"`
	Description string       `json:"description" mapstructure:"description"`
	Seed        int64        `json:"seed,omitempty" mapstructure:"seed"`
	Players     []PlayerSpec `json:"players" mapstructure:"players"`
}

// PresetInfo summarizes a preset for listings
type PresetInfo struct {
	ID          string `json:"id"` // The identifier to use for game creation
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Players     int    `json:"players"`
}

// ValidateRoster checks seat count, kinds and strategies
func ValidateRoster(players []PlayerSpec) error {
	if len(players) < engine.MinPlayers || len(players) > engine.MaxPlayers {
		return fmt.Errorf("need %d to %d players, got %d", engine.MinPlayers, engine.MaxPlayers, len(players))
	}
	for i, p := range players {
		kind, err := engine.ParseSeatKind(p.Kind)
		if err != nil {
			return fmt.Errorf("player %d: %w", i+1, err)
		}
		if kind == engine.SeatReplaced {
			return fmt.Errorf("player %d: kind %q cannot be requested", i+1, p.Kind)
		}
		if kind != engine.SeatAutomated && p.Strategy != "" {
			return fmt.Errorf("player %d: strategy only applies to automated seats", i+1)
		}
		switch strings.ToLower(strings.TrimSpace(p.Strategy)) {
		case "", player.StrategyRandom, player.StrategyFirst:
		default:
			return fmt.Errorf("player %d: unknown strategy %q", i+1, p.Strategy)
		}
	}
	return nil
}

// Validate checks a preset
func (p *Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if err := ValidateRoster(p.Players); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return nil
}

// Info summarizes the preset
func (p *Preset) Info(filename string) *PresetInfo {
	return &PresetInfo{
		ID:          p.ID,
		Filename:    filename,
		Name:        p.Name,
		Description: p.Description,
		Players:     len(p.Players),
	}
}

// AutomatedRoster returns a copy of players with every seat automated.
// Unnamed seats are called player-N.
func AutomatedRoster(players []PlayerSpec) []PlayerSpec {
	roster := make([]PlayerSpec, len(players))
	for i, p := range players {
		if p.Name == "" {
			p.Name = fmt.Sprintf("player-%d", i+1)
		}
		if kind, err := engine.ParseSeatKind(p.Kind); err != nil || kind != engine.SeatAutomated {
			p.Strategy = ""
		}
		p.Kind = engine.SeatAutomated.String()
		roster[i] = p
	}
	return roster
}

func builtinPresets() map[string]*Preset {
	return map[string]*Preset{
		"duel": {
			ID:          "duel",
			Name:        "Duel",
			Description: "One interactive seat against a random automated opponent",
			Players: []PlayerSpec{
				{Name: "you", Kind: "interactive"},
				{Name: "bot", Kind: "automated", Strategy: player.StrategyRandom},
			},
		},
		"quartet": {
			ID:          "quartet",
			Name:        "Quartet",
			Description: "Four automated seats, useful for watching a full game",
			Players: []PlayerSpec{
				{Name: "ada", Kind: "automated"},
				{Name: "bo", Kind: "automated"},
				{Name: "cy", Kind: "automated", Strategy: player.StrategyFirst},
				{Name: "di", Kind: "automated", Strategy: player.StrategyFirst},
			},
		},
		"full-table": {
			ID:          "full-table",
			Name:        "Full table",
			Description: "Eight automated seats",
			Players: []PlayerSpec{
				{Name: "p1", Kind: "automated"}, {Name: "p2", Kind: "automated"},
				{Name: "p3", Kind: "automated"}, {Name: "p4", Kind: "automated"},
				{Name: "p5", Kind: "automated"}, {Name: "p6", Kind: "automated"},
				{Name: "p7", Kind: "automated"}, {Name: "p8", Kind: "automated"},
			},
		},
	}
}
