package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// StorageKey is the key the settings blob is stored under inside the file.
const StorageKey = "todoUISettings"

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Settings struct {
	Theme string `yaml:"theme"`
	Color string `yaml:"color"`
	Font  string `yaml:"font"`
	Size  int    `yaml:"size"`
}

func Default() Settings {
	return Settings{
		Theme: ThemeDark,
		Color: "#4CAF50",
		Font:  "Poppins",
		Size:  16,
	}
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks values entered by the user before they are saved.
func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("theme must be %s or %s", ThemeDark, ThemeLight)
	}
	if !hexColor.MatchString(s.Color) {
		return fmt.Errorf("color must look like #4CAF50")
	}
	if strings.TrimSpace(s.Font) == "" {
		return fmt.Errorf("font is required")
	}
	if s.Size < 8 || s.Size > 48 {
		return fmt.Errorf("size must be between 8 and 48")
	}
	return nil
}

// normalize fills zero fields from the defaults and folds an unknown theme to dark.
func (s Settings) normalize() Settings {
	d := Default()
	s.Theme = strings.ToLower(strings.TrimSpace(s.Theme))
	if s.Theme != ThemeLight {
		s.Theme = ThemeDark
	}
	if strings.TrimSpace(s.Color) == "" {
		s.Color = d.Color
	}
	if strings.TrimSpace(s.Font) == "" {
		s.Font = d.Font
	}
	if s.Size <= 0 {
		s.Size = d.Size
	}
	return s
}

// ToggleTheme returns a copy with dark and light swapped.
func (s Settings) ToggleTheme() Settings {
	if s.Theme == ThemeLight {
		s.Theme = ThemeDark
	} else {
		s.Theme = ThemeLight
	}
	return s
}

type document map[string]Settings

type Manager struct {
	mu       sync.Mutex
	path     string
	settings Settings
}

// NewManager loads settings from path. A missing or unreadable file yields the defaults.
func NewManager(path string) *Manager {
	m := &Manager{path: path, settings: Default()}
	if s, err := m.load(); err == nil {
		m.settings = s
	}
	return m
}

func (m *Manager) load() (Settings, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Settings{}, err
	}
	s, ok := doc[StorageKey]
	if !ok {
		return Settings{}, fmt.Errorf("%s: no %s entry", m.path, StorageKey)
	}
	return s.normalize(), nil
}

func (m *Manager) Get() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Manager) Path() string { return m.path }

// Save stores s, creating the parent directory when needed.
func (m *Manager) Save(s Settings) error {
	s = s.normalize()
	data, err := yaml.Marshal(document{StorageKey: s})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	return nil
}

// DefaultPath is the settings file inside the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".todolist", "settings.yaml")
		}
		dir = home
	}
	return filepath.Join(dir, "todolist", "settings.yaml")
}
