package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// presetExtensions are tried in order when resolving a preset name
var presetExtensions = []string{".yaml", ".yml", ".json"}

// Manager loads table presets from a directory and caches them. Built-in
// presets are always available and are shadowed by files with the same name.
type Manager struct {
	presetDir string
	builtins  map[string]*Preset
	presets   map[string]*Preset
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewManager creates a preset manager. An empty presetDir serves only the
// built-in presets.
func NewManager(presetDir string, logger *zap.Logger) (*Manager, error) {
	if presetDir != "" {
		if _, err := os.Stat(presetDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("preset directory does not exist: %s", presetDir)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		presetDir: presetDir,
		builtins:  builtinPresets(),
		presets:   make(map[string]*Preset),
		logger:    logger,
	}, nil
}

// LoadPreset loads a preset by name
func (m *Manager) LoadPreset(name string) (*Preset, error) {
	id := presetID(name)

	m.mu.RLock()
	// Check cache first
	if preset, exists := m.presets[id]; exists {
		m.mu.RUnlock()
		return preset, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if preset, exists := m.presets[id]; exists {
		return preset, nil
	}

	path, ok := m.findFile(id)
	if !ok {
		if preset, exists := m.builtins[id]; exists {
			m.presets[id] = preset
			return preset, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}

	preset, err := ReadPresetFile(path)
	if err != nil {
		return nil, err
	}
	preset.ID = id
	m.presets[id] = preset
	m.logger.Debug("preset loaded", zap.String("preset", id), zap.String("path", path))
	return preset, nil
}

// ListPresets returns every built-in and file preset, sorted by ID. Files
// that fail to parse are skipped.
func (m *Manager) ListPresets() ([]*PresetInfo, error) {
	found := make(map[string]string)
	if m.presetDir != "" {
		entries, err := os.ReadDir(m.presetDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !hasPresetExtension(entry.Name()) {
				continue
			}
			found[presetID(entry.Name())] = entry.Name()
		}
	}
	for id := range m.builtins {
		if _, exists := found[id]; !exists {
			found[id] = ""
		}
	}

	presets := make([]*PresetInfo, 0, len(found))
	for id, filename := range found {
		preset, err := m.LoadPreset(id)
		if err != nil {
			m.logger.Warn("skipping invalid preset", zap.String("preset", id), zap.Error(err))
			continue
		}
		presets = append(presets, preset.Info(filename))
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, nil
}

// RefreshCache drops cached presets so files are re-read
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = make(map[string]*Preset)
}

func (m *Manager) findFile(id string) (string, bool) {
	if m.presetDir == "" {
		return "", false
	}
	for _, ext := range presetExtensions {
		path := filepath.Join(m.presetDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ReadPresetFile decodes and validates a yaml or json preset file
func ReadPresetFile(path string) (*Preset, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	var preset Preset
	if err := v.Unmarshal(&preset); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	return &preset, nil
}

func presetID(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, ext := range presetExtensions {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func hasPresetExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range presetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
