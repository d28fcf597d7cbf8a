package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Settings holds the server configuration
type Settings struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	BoardSize       int           `yaml:"board_size"`
	MineCount       int           `yaml:"mine_count"`
	MaxBoardSize    int           `yaml:"max_board_size"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	TickInterval    time.Duration `yaml:"tick_interval"`
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() Settings {
	return Settings{
		Host:            "localhost",
		Port:            8080,
		BoardSize:       engine.DefaultBoardSize,
		MineCount:       engine.DefaultMineCount,
		MaxBoardSize:    32,
		SessionTTL:      2 * time.Hour,
		CleanupInterval: 10 * time.Minute,
		TickInterval:    time.Second,
	}
}

// GameConfig returns the default board
func (s Settings) GameConfig() engine.GameConfig {
	return engine.GameConfig{Size: s.BoardSize, MineCount: s.MineCount}
}

// Validate checks field ranges and that the default board is playable
func (s Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, s.Port)
	}
	if s.MaxBoardSize <= 0 {
		return fmt.Errorf("%w: max_board_size must be positive", ErrInvalidConfig)
	}
	if s.BoardSize > s.MaxBoardSize {
		return fmt.Errorf("%w: board_size %d exceeds max_board_size %d", ErrInvalidConfig, s.BoardSize, s.MaxBoardSize)
	}
	if err := engine.ValidateGameConfig(s.GameConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidConfig)
	}
	if s.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup_interval must be positive", ErrInvalidConfig)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadFile reads settings from a YAML file. Missing keys keep their defaults.
func LoadFile(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return settings, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}

	return settings, nil
}

// Manager gives concurrent access to the current settings
type Manager struct {
	path     string
	settings Settings
	mu       sync.RWMutex
}

// NewManager loads settings from path, or uses defaults when path is empty
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, settings: DefaultSettings()}

	if path != "" {
		if err := m.Reload(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Get returns a copy of the current settings
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Set replaces the settings after validating them
func (m *Manager) Set(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// Reload re-reads the settings file. Without a file it is a no-op.
func (m *Manager) Reload() error {
	if m.path == "" {
		return nil
	}

	settings, err := LoadFile(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return nil
}

// GameDefaults returns the board used when a session omits one
func (m *Manager) GameDefaults() engine.GameConfig {
	return m.Get().GameConfig()
}

// MaxBoardSize returns the largest side length a session may request
func (m *Manager) MaxBoardSize() int {
	return m.Get().MaxBoardSize
}
