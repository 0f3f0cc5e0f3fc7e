// Package desktop is the composition root of the launcher grid. A Desktop
// owns the committed layout snapshot and the active page, loads and repairs
// the persisted layout, applies every collaborator operation as an
// all-or-nothing commit, and publishes the results on a signal bus.
//
// A Desktop is not safe for concurrent use. Callers that receive events on
// several goroutines serialize them, as the HTTP server does.
package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/wcatz/launcher-grid/internal/catalog"
	"github.com/wcatz/launcher-grid/internal/config"
	"github.com/wcatz/launcher-grid/internal/drag"
	"github.com/wcatz/launcher-grid/internal/folder"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
	"github.com/wcatz/launcher-grid/internal/store"
)

var (
	ErrDuplicate    = errors.New("desktop: item already on the desktop")
	ErrNotFound     = errors.New("desktop: item not found")
	ErrHidden       = errors.New("desktop: app is hidden")
	ErrUnknownSize  = errors.New("desktop: unknown widget size")
	ErrBadName      = errors.New("desktop: folder name is empty")
	ErrDockFull     = errors.New("desktop: dock is full")
	ErrMoveRejected = grid.ErrMoveRejected
)

// GridSize is a rows x columns shape.
type GridSize struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Options configures a Desktop.
type Options struct {
	// Catalog supplies the installed apps. Required.
	Catalog catalog.Provider
	// Store persists the layout; nil keeps it in memory only.
	Store store.Store
	Bus   *signal.Bus

	Grid         GridSize
	FolderArea   grid.Area
	FolderLayout GridSize
	FolderPrefix string
	// WidgetArea maps a widget size class to its footprint.
	WidgetArea func(size string) (grid.Area, bool)
	Hidden     []string
	// DockMax caps the number of apps in the dock.
	DockMax int
	Rules      grid.SqueezeRules

	IDs    *IDGenerator
	Logger *slog.Logger
}

// FromConfig fills the layout options from a loaded config.
func FromConfig(cfg *config.Config) Options {
	g := cfg.GridConfig()
	fl := cfg.FolderLayout()
	return Options{
		Grid:         GridSize{Rows: g.Rows, Columns: g.Columns},
		FolderArea:   cfg.FolderArea(),
		FolderLayout: GridSize{Rows: fl.Rows, Columns: fl.Columns},
		FolderPrefix: cfg.FolderNamePrefix(),
		WidgetArea:   cfg.WidgetArea,
		Hidden:       cfg.Hidden,
		DockMax:      cfg.DockMax(),
	}
}

func (o *Options) defaults() {
	if o.Bus == nil {
		o.Bus = signal.NewBus()
	}
	if o.Grid.Rows <= 0 || o.Grid.Columns <= 0 {
		o.Grid = GridSize{Rows: 4, Columns: 4}
	}
	if o.FolderArea.W <= 0 || o.FolderArea.H <= 0 {
		o.FolderArea = grid.Unit
	}
	if o.FolderLayout.Rows <= 0 || o.FolderLayout.Columns <= 0 {
		o.FolderLayout = GridSize{Rows: 3, Columns: 3}
	}
	if o.FolderPrefix == "" {
		o.FolderPrefix = "New folder"
	}
	if o.WidgetArea == nil {
		o.WidgetArea = func(size string) (grid.Area, bool) {
			a, ok := config.DefaultDimensions[size]
			return a, ok
		}
	}
	if o.DockMax <= 0 {
		o.DockMax = config.DefaultDockMax
	}
	if o.Rules == (grid.SqueezeRules{}) {
		o.Rules = grid.DefaultSqueezeRules
	}
	if o.IDs == nil {
		o.IDs = NewIDGenerator()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Desktop is the launcher grid engine.
type Desktop struct {
	opts   Options
	logger *slog.Logger
	bus    *signal.Bus
	hidden map[string]bool

	snap  *grid.Snapshot
	pager grid.Pager

	desk     deskDrag
	openID   string
	openPage int
	fold     folderDrag
	dock     dockDrag
	// pressed is the session that saw the last pointer down outside an
	// open folder.
	pressed *drag.Session
}

// New creates a Desktop. Call Load before using it.
func New(opts Options) (*Desktop, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("desktop: Catalog is required")
	}
	opts.defaults()
	d := &Desktop{
		opts:   opts,
		logger: opts.Logger,
		bus:    opts.Bus,
		hidden: make(map[string]bool, len(opts.Hidden)),
		snap:   grid.New(opts.Grid.Rows, opts.Grid.Columns),
	}
	for _, k := range opts.Hidden {
		d.hidden[k] = true
	}
	d.desk.session = drag.NewSession(drag.Rect{})
	d.fold.session = drag.NewSession(drag.Rect{})
	d.dock.session = drag.NewSession(drag.Rect{})
	d.desk.axes = drag.NewAxes(drag.Rect{}, opts.Grid.Rows, opts.Grid.Columns)
	d.fold.axes = drag.NewAxes(drag.Rect{}, opts.FolderLayout.Rows, opts.FolderLayout.Columns)
	return d, nil
}

// Bus returns the signal bus the desktop publishes on.
func (d *Desktop) Bus() *signal.Bus { return d.bus }

// Load reads the persisted layout and checks it against the current grid
// and catalog. An unusable layout is rebuilt from the catalog; a usable
// one is reconciled with it. Load never fails: persistence errors are
// logged.
func (d *Desktop) Load() {
	var loaded *grid.Snapshot
	if d.opts.Store != nil {
		s, err := d.opts.Store.Load()
		if err != nil {
			d.logger.Warn("discarding persisted layout", "error", err)
		}
		loaded = s
	}

	installed := d.installed()
	g := d.opts.Grid
	if err := grid.Validate(loaded, g.Rows, g.Columns); err != nil {
		d.logger.Info("rebuilding layout", "reason", err, "apps", len(installed))
		d.snap = d.rebuild(loaded, installed)
	} else {
		d.snap = loaded
		rep := grid.Reconcile(d.snap, installed, d.folderCapacity())
		if rep.Changed() {
			d.logger.Info("layout reconciled with catalog",
				"added", len(rep.Added), "removed", len(rep.Removed),
				"dissolved", len(rep.Dissolved), "undocked", len(rep.Undocked),
				"deleted_pages", len(rep.DeletedPages))
		}
	}
	if n := len(d.snap.Dock); n > d.opts.DockMax {
		d.logger.Info("dock over capacity, trimmed", "apps", n, "max", d.opts.DockMax)
		d.snap.Dock = d.snap.Dock[:d.opts.DockMax]
	}
	d.opts.IDs.Observe(d.snap)
	d.pager = grid.Pager{}
	d.pager.Clamp(d.snap)
	d.persist()
	d.publish()
}

// rebuild places every installed app once, then the widgets and function
// items of prev that are still backed by an installed app. Installed dock
// apps of prev stay docked, in order, up to the dock capacity.
func (d *Desktop) rebuild(prev *grid.Snapshot, installed []grid.Item) *grid.Snapshot {
	known := make(map[string]bool, len(installed))
	for _, it := range installed {
		known[it.Key] = true
	}
	entries := append([]grid.Item(nil), installed...)
	if prev != nil {
		for _, it := range prev.Items {
			switch it.Kind {
			case grid.KindFunction:
				entries = append(entries, it)
			case grid.KindWidget:
				if it.Widget == nil || it.Widget.Source == "" || known[it.Widget.Source] {
					entries = append(entries, it)
				}
			}
		}
	}
	g := d.opts.Grid
	s := grid.Rebuild(g.Rows, g.Columns, entries)
	if prev != nil {
		for _, it := range prev.Dock {
			if len(s.Dock) < d.opts.DockMax && it.Kind == grid.KindApp && known[it.Key] && s.DockIndex(it.Key) < 0 {
				s.Dock = append(s.Dock, unplaced(it))
			}
		}
	}
	return s
}

// installed lists the catalog apps as desktop items, hidden ones excluded.
func (d *Desktop) installed() []grid.Item {
	var out []grid.Item
	for _, app := range d.opts.Catalog.List() {
		if d.hidden[app.Key()] {
			continue
		}
		out = append(out, appItem(app))
	}
	return out
}

func appItem(app catalog.Item) grid.Item {
	return grid.Item{
		Kind:       grid.KindApp,
		Key:        app.Key(),
		BundleName: app.BundleName,
		Name:       app.Label,
		Area:       grid.Unit,
		Badge:      app.Badge,
	}
}

func (d *Desktop) folderCapacity() int {
	return folder.Capacity(d.opts.FolderLayout.Rows, d.opts.FolderLayout.Columns)
}

// mutate applies fn to a copy of the committed snapshot and pager. The
// copy is committed, persisted and published only when fn succeeds and
// the result passes grid.Check.
func (d *Desktop) mutate(op string, fn func(s *grid.Snapshot, p *grid.Pager) error) error {
	next := d.snap.Clone()
	pager := d.pager
	if err := fn(next, &pager); err != nil {
		return err
	}
	if err := grid.Check(next); err != nil {
		d.logger.Error("layout check failed, change dropped", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	pager.Clamp(next)
	d.snap = next
	d.pager = pager
	d.persist()
	d.publish()
	return nil
}

func (d *Desktop) persist() {
	if d.opts.Store == nil {
		return
	}
	if err := d.opts.Store.Save(d.snap); err != nil {
		d.logger.Error("saving layout", "error", err)
	}
}

func (d *Desktop) publish() {
	d.bus.GridList.Set(grid.Pages(d.snap))
	d.bus.ActivePage.Set(d.pager.Active)
	d.bus.Dock.Set(d.Dock())
	if d.openID != "" {
		d.bus.OpenFolder.Set(d.folderView())
	}
}

// GetGridList recomputes the per-page render model, publishes it and
// returns it.
func (d *Desktop) GetGridList() [][]grid.Item {
	pages := grid.Pages(d.snap)
	d.bus.GridList.Set(pages)
	return pages
}

// Snapshot returns a copy of the committed layout.
func (d *Desktop) Snapshot() *grid.Snapshot {
	return d.snap.Clone()
}

// Grid returns the current grid shape.
func (d *Desktop) Grid() GridSize {
	return d.opts.Grid
}

// AddItem puts an installed app on the desktop with the install policy.
// An app already present, directly or in a folder, is rejected with
// ErrDuplicate and a toast.
func (d *Desktop) AddItem(app catalog.Item) error {
	key := app.Key()
	if d.hidden[key] {
		return fmt.Errorf("%w: %s", ErrHidden, key)
	}
	if d.snap.Contains(key) {
		d.logger.Info("duplicate add rejected", "key", key)
		d.bus.Toast.Set(fmt.Sprintf("%s is already on the desktop", displayName(app)))
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	return d.mutate("add item", func(s *grid.Snapshot, p *grid.Pager) error {
		pl, err := grid.Place(s, appItem(app), grid.PolicyInstall, p.Active)
		if err != nil {
			return err
		}
		d.logger.Debug("item placed", "key", key, "position", pl.Position.String())
		return nil
	})
}

func displayName(app catalog.Item) string {
	if app.Label != "" {
		return app.Label
	}
	return app.BundleName
}

// DeleteItem removes an app, function item, widget or folder by key. Apps
// inside a folder leave the folder, which dissolves when one app is left
// and goes away when none is. Deleting a folder returns its apps to the
// desktop: the first takes the folder's cell, the rest are placed with the
// install policy. Widgets provided by a removed app go with it. Pages
// emptied by the removal are deleted.
func (d *Desktop) DeleteItem(key string) error {
	return d.mutate("delete item", func(s *grid.Snapshot, p *grid.Pager) error {
		return d.deleteItem(s, p, key)
	})
}

func (d *Desktop) deleteItem(s *grid.Snapshot, p *grid.Pager, key string) error {
	var pages []int
	it, ok := s.Find(key)
	switch {
	case ok && it.Kind == grid.KindFolder:
		return unfold(s, indexOfKey(s, key), p.Active)
	case ok:
		s.Remove(indexOfKey(s, key))
		pages = append(pages, it.Position.Page)
	case s.FolderOf(key) >= 0:
		page := s.Items[s.FolderOf(key)].Position.Page
		takeApp(s, key, d.folderCapacity())
		pages = append(pages, page)
	default:
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	for i := len(s.Items) - 1; i >= 0; i-- {
		w := s.Items[i]
		if w.Kind == grid.KindWidget && w.Widget != nil && w.Widget.Source == key {
			s.Remove(i)
			pages = append(pages, w.Position.Page)
		}
	}
	deleteBlankPages(s, p, pages)
	return nil
}

// uninstall removes an app from the desktop, its folder and the dock in
// one commit.
func (d *Desktop) uninstall(key string) error {
	return d.mutate("uninstall", func(s *grid.Snapshot, p *grid.Pager) error {
		i := s.DockIndex(key)
		if i >= 0 {
			s.Dock = slices.Delete(s.Dock, i, i+1)
		}
		err := d.deleteItem(s, p, key)
		if i >= 0 && errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	})
}

// unfold replaces the folder at index i with its apps.
func unfold(s *grid.Snapshot, i, active int) error {
	f := s.Remove(i)
	for n, app := range f.Apps() {
		app = unplaced(app)
		if n == 0 {
			app.Position = f.Position
			s.Items = append(s.Items, app)
			continue
		}
		if _, err := grid.Place(s, app, grid.PolicyInstall, active); err != nil {
			return err
		}
	}
	return nil
}

// deleteBlankPages drops every listed page that ended up blank, highest
// index first so the lower ones keep their meaning.
func deleteBlankPages(s *grid.Snapshot, p *grid.Pager, pages []int) {
	sort.Sort(sort.Reverse(sort.IntSlice(pages)))
	for i, page := range pages {
		if i > 0 && pages[i-1] == page {
			continue
		}
		p.DeleteBlank(s, page)
	}
}

func indexOfKey(s *grid.Snapshot, key string) int {
	for i, it := range s.Items {
		if it.Key == key {
			return i
		}
	}
	return -1
}

// AddWidget places a widget of the given size class near the active page
// and returns its id. source is the key of the providing app and may be
// empty.
func (d *Desktop) AddWidget(size, source string) (int, error) {
	area, ok := d.opts.WidgetArea(size)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSize, size)
	}
	if source != "" && !d.isInstalled(source) {
		return 0, fmt.Errorf("%w: widget source %s", ErrNotFound, source)
	}
	id := d.opts.IDs.NextCard()
	err := d.mutate("add widget", func(s *grid.Snapshot, p *grid.Pager) error {
		_, err := grid.Place(s, grid.Item{
			Kind:   grid.KindWidget,
			Key:    store.CardKey(id),
			Area:   area,
			Widget: &grid.Widget{ID: id, Dimension: size, Source: source},
		}, grid.PolicyNearActive, p.Active)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Desktop) isInstalled(key string) bool {
	for _, app := range d.opts.Catalog.List() {
		if app.Key() == key {
			return true
		}
	}
	return false
}

// RemoveWidget deletes the widget with the given id.
func (d *Desktop) RemoveWidget(id int) error {
	key := store.CardKey(id)
	if d.snap.Index(grid.KindWidget, key) < 0 {
		return fmt.Errorf("%w: widget %d", ErrNotFound, id)
	}
	return d.DeleteItem(key)
}

// UpdateBadge sets an app's badge count. Inside a folder the folder badge
// follows the change.
func (d *Desktop) UpdateBadge(key string, n int) error {
	return d.mutate("update badge", func(s *grid.Snapshot, _ *grid.Pager) error {
		return setBadge(s, key, n)
	})
}

func setBadge(s *grid.Snapshot, key string, n int) error {
	if n < 0 {
		n = 0
	}
	if i := s.Index(grid.KindApp, key); i >= 0 {
		s.Items[i].Badge = n
		return nil
	}
	fi := s.FolderOf(key)
	if fi < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	f := &s.Items[fi]
	for _, page := range f.Folder.Pages {
		for j := range page {
			if page[j].Key == key {
				f.Badge = max(0, f.Badge-page[j].Badge+n)
				page[j].Badge = n
			}
		}
	}
	return nil
}

// ChangeActivePage moves to page i.
func (d *Desktop) ChangeActivePage(i int) error {
	if err := d.pager.SetActive(d.snap, i); err != nil {
		return err
	}
	d.bus.ActivePage.Set(d.pager.Active)
	return nil
}

// ActivePage returns the active page index.
func (d *Desktop) ActivePage() int { return d.pager.Active }

// AddBlankPage appends a page and makes it active.
func (d *Desktop) AddBlankPage() error {
	return d.mutate("add page", func(s *grid.Snapshot, p *grid.Pager) error {
		p.AddBlank(s)
		return nil
	})
}

// AddOrDeleteBlankPage deletes the active page when it is blank and adds
// a page otherwise.
func (d *Desktop) AddOrDeleteBlankPage() error {
	return d.mutate("toggle page", func(s *grid.Snapshot, p *grid.Pager) error {
		p.Toggle(s)
		return nil
	})
}

// AddPageByDragging appends a page for an in-flight drag. The page goes
// away after the drop unless the item lands on it.
func (d *Desktop) AddPageByDragging() error {
	return d.mutate("add drag page", func(s *grid.Snapshot, p *grid.Pager) error {
		p.AddForDrag(s)
		return nil
	})
}

// SetGridConfig switches the grid shape. A layout that no longer matches
// is rebuilt.
func (d *Desktop) SetGridConfig(size GridSize) error {
	if size.Rows <= 0 || size.Columns <= 0 {
		return fmt.Errorf("desktop: grid %dx%d: %w", size.Rows, size.Columns, grid.ErrGeometry)
	}
	if size == d.opts.Grid {
		return nil
	}
	d.logger.Info("grid changed", "rows", size.Rows, "columns", size.Columns)
	d.opts.Grid = size
	d.desk.axes = drag.NewAxes(d.desk.session.EffectArea, size.Rows, size.Columns)
	d.snap = d.rebuild(d.snap, d.installed())
	d.pager = grid.Pager{}
	d.persist()
	d.publish()
	return nil
}

// OnCatalogChange applies an install, uninstall or update pushed by the
// catalog.
func (d *Desktop) OnCatalogChange(c catalog.Change) {
	key := c.Item.Key()
	var err error
	switch c.Kind {
	case catalog.Added:
		if d.hidden[key] {
			return
		}
		err = d.AddItem(c.Item)
		if errors.Is(err, ErrDuplicate) {
			err = nil
		}
	case catalog.Removed:
		if d.snap.Contains(key) || d.snap.DockIndex(key) >= 0 {
			err = d.uninstall(key)
		}
	case catalog.Updated:
		if d.snap.Contains(key) || d.snap.DockIndex(key) >= 0 {
			err = d.updateApp(c.Item)
		}
	}
	if err != nil {
		d.logger.Warn("catalog change not applied", "change", c.Kind.String(), "key", key, "error", err)
	}
}

// updateApp refreshes the label and badge of an app wherever it sits, in
// one commit.
func (d *Desktop) updateApp(app catalog.Item) error {
	key := app.Key()
	return d.mutate("update app", func(s *grid.Snapshot, _ *grid.Pager) error {
		if i := s.DockIndex(key); i >= 0 {
			s.Dock[i].Name = app.Label
		}
		if !s.Contains(key) {
			return nil
		}
		if err := setBadge(s, key, app.Badge); err != nil {
			return err
		}
		if i := s.Index(grid.KindApp, key); i >= 0 {
			s.Items[i].Name = app.Label
		}
		if fi := s.FolderOf(key); fi >= 0 {
			for _, page := range s.Items[fi].Folder.Pages {
				for j := range page {
					if page[j].Key == key {
						page[j].Name = app.Label
					}
				}
			}
		}
		return nil
	})
}
