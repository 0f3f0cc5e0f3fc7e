package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wcatz/launcher-grid/internal/grid"
)

// GridPreset is one selectable desktop geometry.
type GridPreset struct {
	ID      int    `yaml:"id"`
	Layout  string `yaml:"layout"`
	Rows    int    `yaml:"rows"`
	Columns int    `yaml:"columns"`
}

// GridSettings lists the presets and the one in use.
type GridSettings struct {
	Presets []GridPreset `yaml:"presets"`
	Active  int          `yaml:"active"`
}

// FolderLayout is the rows x columns of one page of an open folder.
type FolderLayout struct {
	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`
}

// FolderSettings configures folder tiles and open folders.
type FolderSettings struct {
	Area       []int        `yaml:"area"`
	OpenLayout FolderLayout `yaml:"open_layout"`
	NamePrefix string       `yaml:"name_prefix"`
}

// WidgetSettings maps a widget size class to its [w, h] footprint.
type WidgetSettings struct {
	Dimensions map[string][]int `yaml:"dimensions"`
}

// DockSettings configures the resident dock.
type DockSettings struct {
	Max int `yaml:"max"`
}

// StorageSettings selects the persistence backend.
type StorageSettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type CatalogSettings struct {
	Path string `yaml:"path"`
}

type ServerSettings struct {
	Addr string `yaml:"addr"`
}

type LogSettings struct {
	Level string `yaml:"level"`
}

// Config holds the entire YAML configuration.
type Config struct {
	Grid    GridSettings    `yaml:"grid"`
	Folder  FolderSettings  `yaml:"folder"`
	Widgets WidgetSettings  `yaml:"widgets"`
	Dock    DockSettings    `yaml:"dock"`
	Storage StorageSettings `yaml:"storage"`
	Catalog CatalogSettings `yaml:"catalog"`
	Hidden  []string        `yaml:"hidden"`
	Server  ServerSettings  `yaml:"server"`
	Log     LogSettings     `yaml:"log"`
}

// DefaultPresets are used when the file declares none.
var DefaultPresets = []GridPreset{
	{ID: 0, Layout: "4X4", Rows: 4, Columns: 4},
	{ID: 1, Layout: "5X4", Rows: 5, Columns: 4},
	{ID: 2, Layout: "6X4", Rows: 6, Columns: 4},
}

// DefaultDimensions are the widget size classes known without config.
var DefaultDimensions = map[string]grid.Area{
	"1x2": {W: 2, H: 1},
	"2x2": {W: 2, H: 2},
	"2x4": {W: 4, H: 2},
	"4x4": {W: 4, H: 4},
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a YAML config from raw bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	for i := range c.Grid.Presets {
		p := &c.Grid.Presets[i]
		if p.Rows == 0 && p.Columns == 0 && p.Layout != "" {
			rows, cols, err := ParseLayout(p.Layout)
			if err != nil {
				return nil, fmt.Errorf("parsing config: grid preset %d: %w", p.ID, err)
			}
			p.Rows, p.Columns = rows, cols
		}
		if p.Rows <= 0 || p.Columns <= 0 {
			return nil, fmt.Errorf("parsing config: grid preset %d: rows and columns must be positive", p.ID)
		}
	}
	for size, dim := range c.Widgets.Dimensions {
		if len(dim) != 2 || dim[0] <= 0 || dim[1] <= 0 {
			return nil, fmt.Errorf("parsing config: widget dimension %q must be [w, h]", size)
		}
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{}
}

// ParseLayout parses "5X4" (rows X columns).
func ParseLayout(s string) (rows, cols int, err error) {
	r, c, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), "X")
	if !ok {
		return 0, 0, fmt.Errorf("layout %q is not ROWSxCOLUMNS", s)
	}
	if rows, err = strconv.Atoi(r); err != nil {
		return 0, 0, fmt.Errorf("layout %q: %w", s, err)
	}
	if cols, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("layout %q: %w", s, err)
	}
	return rows, cols, nil
}

// GetPresets returns the configured presets, or the defaults.
func (c *Config) GetPresets() []GridPreset {
	if len(c.Grid.Presets) == 0 {
		return DefaultPresets
	}
	return c.Grid.Presets
}

// GridConfig returns the active grid preset. An unknown active id falls
// back to the first preset.
func (c *Config) GridConfig() GridPreset {
	presets := c.GetPresets()
	for _, p := range presets {
		if p.ID == c.Grid.Active {
			return p
		}
	}
	return presets[0]
}

// GetPreset returns the preset with the given id.
func (c *Config) GetPreset(id int) (GridPreset, bool) {
	for _, p := range c.GetPresets() {
		if p.ID == id {
			return p, true
		}
	}
	return GridPreset{}, false
}

// FolderArea is the footprint of a folder tile on the desktop.
func (c *Config) FolderArea() grid.Area {
	a := c.Folder.Area
	if len(a) != 2 || a[0] <= 0 || a[1] <= 0 {
		return grid.Unit
	}
	return grid.Area{W: a[0], H: a[1]}
}

// FolderLayout returns the page shape of an open folder (3x3 by default).
func (c *Config) FolderLayout() FolderLayout {
	l := c.Folder.OpenLayout
	if l.Rows <= 0 || l.Columns <= 0 {
		return FolderLayout{Rows: 3, Columns: 3}
	}
	return l
}

func (c *Config) FolderNamePrefix() string {
	if c.Folder.NamePrefix == "" {
		return "New folder"
	}
	return c.Folder.NamePrefix
}

// WidgetArea maps a size class to a footprint.
func (c *Config) WidgetArea(size string) (grid.Area, bool) {
	if dim, ok := c.Widgets.Dimensions[size]; ok {
		return grid.Area{W: dim[0], H: dim[1]}, true
	}
	a, ok := DefaultDimensions[size]
	return a, ok
}

// DefaultDockMax is the dock capacity when dock.max is unset.
const DefaultDockMax = 5

// DockMax returns how many apps the dock holds.
func (c *Config) DockMax() int {
	if c.Dock.Max <= 0 {
		return DefaultDockMax
	}
	return c.Dock.Max
}

// GetStorage returns storage settings with defaults applied.
func (c *Config) GetStorage() StorageSettings {
	s := c.Storage
	if s.Backend == "" {
		s.Backend = "json"
	}
	if s.Path == "" {
		if s.Backend == "sqlite" {
			s.Path = "layout.db"
		} else {
			s.Path = "layout.json"
		}
	}
	return s
}

func (c *Config) CatalogPath() string {
	if c.Catalog.Path == "" {
		return "apps.yaml"
	}
	return c.Catalog.Path
}

func (c *Config) ServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// IsHidden reports whether an app key is kept off the desktop.
func (c *Config) IsHidden(key string) bool {
	for _, h := range c.Hidden {
		if h == key {
			return true
		}
	}
	return false
}

// LogLevel maps log.level to a slog level; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
