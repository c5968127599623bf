// Package config provides server settings and table presets.
//
// Settings:
//
// Load reads an optional yaml/json/toml file and then TSURO_* environment
// variables (TSURO_SERVER_PORT, TSURO_LOGGING_LEVEL, TSURO_GAME_TURN_TIMEOUT,
// ...). Missing keys fall back to defaults.
//
// Presets:
//
// A preset is a named roster of seats. Presets are stored as yaml or json
// files in the preset directory:
//
//	name: Duel
//	description: One interactive seat against a bot
//	players:
//	  - name: you
//	    kind: interactive
//	  - name: bot
//	    kind: automated
//	    strategy: first
//
// The built-in presets duel, quartet and full-table are always available; a
// file with the same name replaces them.
//
// Usage:
//
//	manager, err := config.NewManager("presets", logger)
//	preset, err := manager.LoadPreset("duel")
//	presets, err := manager.ListPresets()
//
// Validation:
//
// Presets must have a name and 2 to 8 players. Kinds are interactive,
// automated (alias machine) or remote; strategies are random or first and only
// apply to automated seats.
package config
