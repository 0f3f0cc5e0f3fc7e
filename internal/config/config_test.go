package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wcatz/launcher-grid/internal/grid"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg := `
grid:
  active: 1
  presets:
    - { id: 0, layout: "4X4", rows: 4, columns: 4 }
    - { id: 1, layout: "5X4" }
folder:
  area: [2, 2]
  open_layout: { rows: 4, columns: 4 }
  name_prefix: Folder
widgets:
  dimensions:
    wide: [4, 1]
dock:
  max: 8
storage:
  backend: sqlite
  path: /var/lib/launcher/layout.db
catalog:
  path: apps.yaml
hidden:
  - com.example.settings
server:
  addr: ":9090"
log:
  level: debug
`
	path := writeTestConfig(t, cfg)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := c.GridConfig(); got != (GridPreset{ID: 1, Layout: "5X4", Rows: 5, Columns: 4}) {
		t.Errorf("GridConfig() = %+v, want 5X4", got)
	}
	if got := c.FolderArea(); got != (grid.Area{W: 2, H: 2}) {
		t.Errorf("FolderArea() = %+v", got)
	}
	if got := c.FolderLayout(); got != (FolderLayout{Rows: 4, Columns: 4}) {
		t.Errorf("FolderLayout() = %+v", got)
	}
	if got := c.FolderNamePrefix(); got != "Folder" {
		t.Errorf("FolderNamePrefix() = %q", got)
	}
	if a, ok := c.WidgetArea("wide"); !ok || a != (grid.Area{W: 4, H: 1}) {
		t.Errorf("WidgetArea(wide) = %+v, %v", a, ok)
	}
	if a, ok := c.WidgetArea("2x4"); !ok || a != (grid.Area{W: 4, H: 2}) {
		t.Errorf("WidgetArea(2x4) = %+v, %v", a, ok)
	}
	if c.DockMax() != 8 {
		t.Errorf("DockMax() = %d, want 8", c.DockMax())
	}
	if st := c.GetStorage(); st.Backend != "sqlite" || st.Path != "/var/lib/launcher/layout.db" {
		t.Errorf("GetStorage() = %+v", st)
	}
	if !c.IsHidden("com.example.settings") || c.IsHidden("com.example.mail") {
		t.Error("IsHidden mismatch")
	}
	if c.ServerAddr() != ":9090" {
		t.Errorf("ServerAddr() = %q", c.ServerAddr())
	}
	if c.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", c.LogLevel())
	}
}

func TestDefaults(t *testing.T) {
	c, err := LoadFromBytes([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultPresets, c.GetPresets()); diff != "" {
		t.Errorf("GetPresets() mismatch (-want +got):\n%s", diff)
	}
	if got := c.GridConfig(); got.Rows != 4 || got.Columns != 4 {
		t.Errorf("GridConfig() = %+v, want 4X4", got)
	}
	if c.FolderArea() != grid.Unit {
		t.Errorf("FolderArea() = %+v, want 1x1", c.FolderArea())
	}
	if got := c.FolderLayout(); got != (FolderLayout{Rows: 3, Columns: 3}) {
		t.Errorf("FolderLayout() = %+v", got)
	}
	if c.FolderNamePrefix() != "New folder" {
		t.Errorf("FolderNamePrefix() = %q", c.FolderNamePrefix())
	}
	if c.DockMax() != DefaultDockMax {
		t.Errorf("DockMax() = %d, want %d", c.DockMax(), DefaultDockMax)
	}
	if st := c.GetStorage(); st != (StorageSettings{Backend: "json", Path: "layout.json"}) {
		t.Errorf("GetStorage() = %+v", st)
	}
	if c.CatalogPath() != "apps.yaml" || c.ServerAddr() != ":8080" || c.LogLevel() != slog.LevelInfo {
		t.Error("unexpected defaults")
	}
	if _, ok := c.WidgetArea("3x3"); ok {
		t.Error("WidgetArea(3x3) accepted an unknown size class")
	}
}

func TestUnknownActivePresetFallsBack(t *testing.T) {
	c, err := LoadFromBytes([]byte("grid:\n  active: 7\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.GridConfig(); got.ID != 0 {
		t.Errorf("GridConfig().ID = %d, want 0", got.ID)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"syntax", "grid: [", "parsing config"},
		{"zero rows", "grid:\n  presets:\n    - { id: 0, rows: 0, columns: 4 }\n", "must be positive"},
		{"bad layout", "grid:\n  presets:\n    - { id: 0, layout: big }\n", "not ROWSxCOLUMNS"},
		{"bad widget", "widgets:\n  dimensions:\n    odd: [2]\n", "must be [w, h]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFromBytes() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.HasPrefix(err.Error(), "reading config") {
		t.Errorf("Load() = %v, want reading config error", err)
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in         string
		rows, cols int
		ok         bool
	}{
		{"4X4", 4, 4, true},
		{"5x4", 5, 4, true},
		{" 6X4 ", 6, 4, true},
		{"6", 0, 0, false},
		{"aXb", 0, 0, false},
	}
	for _, tt := range tests {
		rows, cols, err := ParseLayout(tt.in)
		if (err == nil) != tt.ok || rows != tt.rows || cols != tt.cols {
			t.Errorf("ParseLayout(%q) = %d, %d, %v", tt.in, rows, cols, err)
		}
	}
}

func TestWatcherSeesWrites(t *testing.T) {
	path := writeTestConfig(t, "grid:\n  active: 0\n")
	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	go w.Run(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	if err := os.WriteFile(path, []byte("grid:\n  active: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeTestConfig(t, "grid:\n  active: 0\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	go Watch(ctx, path, nil, func(c *Config) {
		select {
		case got <- c:
		default:
		}
	})

	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.GridConfig().ID != 2 {
				t.Errorf("reloaded active preset = %d, want 2", c.GridConfig().ID)
			}
			return
		case <-tick.C:
			os.WriteFile(path, []byte("grid:\n  active: 2\n"), 0644)
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
}
