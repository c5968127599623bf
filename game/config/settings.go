package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TSURO_SERVER_PORT
const EnvPrefix = "TSURO"

var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the server configuration
type Settings struct {
	Server  ServerSettings  `mapstructure:"server"`
	Logging LoggingSettings `mapstructure:"logging"`
	Game    GameSettings    `mapstructure:"game"`
	Session SessionSettings `mapstructure:"session"`
}

type ServerSettings struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Ngrok       bool   `mapstructure:"ngrok"`
	NgrokDomain string `mapstructure:"ngrok_domain"`
}

type LoggingSettings struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // json|console
}

type GameSettings struct {
	// DefaultSeed seeds games created without one; 0 means time-based
	DefaultSeed int64         `mapstructure:"default_seed"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	PresetDir   string        `mapstructure:"preset_dir"`
}

type SessionSettings struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Address is host:port for the HTTP listener
func (s ServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ngrok", false)
	v.SetDefault("server.ngrok_domain", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.default_seed", 0)
	v.SetDefault("game.turn_timeout", 30*time.Second)
	v.SetDefault("game.preset_dir", "")
	v.SetDefault("session.max_age", 24*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)
}

// Load reads settings from an optional file and TSURO_* environment
// variables. Environment values win over the file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ranges and enumerations
func (s *Settings) Validate() error {
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidSettings, s.Server.Port)
	}
	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidSettings, s.Logging.Level)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidSettings, s.Logging.Format)
	}
	if s.Game.TurnTimeout <= 0 {
		return fmt.Errorf("%w: turn timeout must be positive", ErrInvalidSettings)
	}
	return nil
}
