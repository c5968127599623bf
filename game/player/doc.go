// Package player holds the Player implementations that live outside the
// engine: Interactive, driven by staged decisions from the API, and the
// automated strategies selectable from table presets.
package player
