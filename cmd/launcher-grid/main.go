package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wcatz/launcher-grid/internal/catalog"
	"github.com/wcatz/launcher-grid/internal/config"
	"github.com/wcatz/launcher-grid/internal/desktop"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/server"
	"github.com/wcatz/launcher-grid/internal/store"
)

var (
	cfgFile  string
	addr     string
	asJSON   bool
	verbose  bool
	label    string
	source   string
	unhide   bool
	historyN int
	dockAt   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "launcher-grid",
		Short:        "paginated home-screen grid layout engine",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the JSON API and follow config and catalog changes",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the current layout",
		RunE:  runShow,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the layout snapshot as JSON")

	addCmd := &cobra.Command{
		Use:   "add <bundle>",
		Short: "install an app into the catalog and place it",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
	addCmd.Flags().StringVar(&label, "label", "", "display label")

	removeCmd := &cobra.Command{
		Use:   "remove <key>",
		Short: "uninstall an app and take it off the desktop",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}

	widgetCmd := &cobra.Command{Use: "widget", Short: "add or remove widgets"}
	widgetAddCmd := &cobra.Command{
		Use:   "add <size>",
		Short: "place a widget of a size class (1x2, 2x2, 2x4, 4x4 or configured)",
		Args:  cobra.ExactArgs(1),
		RunE:  runWidgetAdd,
	}
	widgetAddCmd.Flags().StringVar(&source, "source", "", "key of the app providing the widget")
	widgetRemoveCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "remove a widget by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runWidgetRemove,
	}
	widgetCmd.AddCommand(widgetAddCmd, widgetRemoveCmd)

	folderCmd := &cobra.Command{Use: "folder", Short: "create and rename folders"}
	folderCreateCmd := &cobra.Command{
		Use:   "create <target> <dragged>",
		Short: "fold two apps into a new folder",
		Args:  cobra.ExactArgs(2),
		RunE:  runFolderCreate,
	}
	folderRenameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE:  runFolderRename,
	}
	folderCmd.AddCommand(folderCreateCmd, folderRenameCmd)

	dockCmd := &cobra.Command{Use: "dock", Short: "add or remove dock apps"}
	dockAddCmd := &cobra.Command{
		Use:   "add <key>",
		Short: "dock an installed app",
		Args:  cobra.ExactArgs(1),
		RunE:  runDockAdd,
	}
	dockAddCmd.Flags().IntVar(&dockAt, "index", -1, "dock slot to insert at (default last)")
	dockRemoveCmd := &cobra.Command{
		Use:   "remove <key>",
		Short: "take an app out of the dock",
		Args:  cobra.ExactArgs(1),
		RunE:  runDockRemove,
	}
	dockCmd.AddCommand(dockAddCmd, dockRemoveCmd)

	pageCmd := &cobra.Command{
		Use:       "page <add|toggle>",
		Short:     "append a page, or delete the active page when blank",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"add", "toggle"},
		RunE:      runPage,
	}

	gridCmd := &cobra.Command{
		Use:   "grid <preset-id>",
		Short: "switch the grid preset in the config file and rebuild if needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runGrid,
	}

	hideCmd := &cobra.Command{
		Use:   "hide <key>",
		Short: "keep an app off the desktop",
		Args:  cobra.ExactArgs(1),
		RunE:  runHide,
	}
	hideCmd.Flags().BoolVar(&unhide, "unhide", false, "show the app again")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check the config and the persisted layout without changing them",
		RunE:  runValidate,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list recent layouts (sqlite storage only)",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyN, "n", "n", 5, "number of layouts")

	rootCmd.AddCommand(serveCmd, showCmd, addCmd, removeCmd, widgetCmd, folderCmd, dockCmd, pageCmd,
		gridCmd, hideCmd, validateCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// launcher is a loaded desktop with its collaborators.
type launcher struct {
	cfg    *config.Config
	logger *slog.Logger
	apps   *catalog.File
	store  store.Store
	desk   *desktop.Desktop
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolve makes a path from the config file relative to the file's
// directory.
func resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || cfgFile == "" {
		return p
	}
	return filepath.Join(filepath.Dir(cfgFile), p)
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	st := cfg.GetStorage()
	return store.Open(st.Backend, resolve(st.Path), logger)
}

func openLauncher() (*launcher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	apps, err := catalog.Open(resolve(cfg.CatalogPath()))
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := desktop.FromConfig(cfg)
	opts.Catalog = apps
	opts.Store = st
	opts.Logger = logger
	d, err := desktop.New(opts)
	if err != nil {
		st.Close()
		return nil, err
	}
	d.Load()
	return &launcher{cfg: cfg, logger: logger, apps: apps, store: st, desk: d}, nil
}

func (l *launcher) Close() error {
	return l.store.Close()
}

// withLauncher opens the launcher, runs fn and prints the resulting layout.
func withLauncher(fn func(l *launcher) error) error {
	l, err := openLauncher()
	if err != nil {
		return err
	}
	defer l.Close()
	if err := fn(l); err != nil {
		return err
	}
	printLayout(l.desk.Snapshot(), l.desk.ActivePage())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	l, err := openLauncher()
	if err != nil {
		return err
	}
	defer l.Close()

	srv, err := server.New(server.Options{
		Desktop:    l.desk,
		Catalog:    l.apps,
		ConfigPath: cfgFile,
		Config:     l.cfg,
		Logger:     l.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := l.apps.Subscribe(func(c catalog.Change) {
		srv.Update(func(d *desktop.Desktop) { d.OnCatalogChange(c) })
	})
	defer unsubscribe()

	if cfgFile != "" {
		go func() {
			err := config.Watch(ctx, cfgFile, l.logger, func(cfg *config.Config) {
				if err := srv.ApplyConfig(cfg); err != nil {
					l.logger.Warn("config change not applied", "error", err)
				}
			})
			if err != nil {
				l.logger.Warn("config watch disabled", "error", err)
			}
		}()
	}

	if p := resolve(l.cfg.CatalogPath()); p != "" {
		w, err := config.NewWatcher(p, 200*time.Millisecond, l.logger)
		if err != nil {
			l.logger.Warn("catalog watch disabled", "path", p, "error", err)
		} else {
			go w.Run(ctx, func() {
				if err := l.apps.Reload(); err != nil {
					l.logger.Warn("catalog reload failed", "path", p, "error", err)
				}
			})
		}
	}

	listen := addr
	if listen == "" {
		listen = l.cfg.ServerAddr()
	}
	return srv.ListenAndServe(ctx, listen)
}

func runShow(cmd *cobra.Command, args []string) error {
	l, err := openLauncher()
	if err != nil {
		return err
	}
	defer l.Close()

	if asJSON {
		data, err := json.MarshalIndent(l.desk.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	printLayout(l.desk.Snapshot(), l.desk.ActivePage())
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		defer l.apps.Subscribe(l.desk.OnCatalogChange)()
		return l.apps.Install(catalog.Item{BundleName: args[0], Label: label})
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		defer l.apps.Subscribe(l.desk.OnCatalogChange)()
		err := l.apps.Uninstall(args[0])
		if errors.Is(err, catalog.ErrUnknownApp) {
			// Function items and widgets are not in the catalog.
			return l.desk.DeleteItem(args[0])
		}
		return err
	})
}

func runWidgetAdd(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		id, err := l.desk.AddWidget(args[0], source)
		if err != nil {
			return err
		}
		fmt.Printf("widget %d placed\n", id)
		return nil
	})
}

func runWidgetRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("widget id %q: %w", args[0], err)
	}
	return withLauncher(func(l *launcher) error {
		return l.desk.RemoveWidget(id)
	})
}

func runFolderCreate(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		id, err := l.desk.CreateFolder(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("folder %s created\n", id)
		return nil
	})
}

func runFolderRename(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		return l.desk.RenameFolder(args[0], args[1])
	})
}

func runDockAdd(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		return l.desk.AddToDock(args[0], dockAt)
	})
}

func runDockRemove(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		return l.desk.RemoveFromDock(args[0])
	})
}

func runPage(cmd *cobra.Command, args []string) error {
	return withLauncher(func(l *launcher) error {
		switch args[0] {
		case "add":
			return l.desk.AddBlankPage()
		case "toggle":
			return l.desk.AddOrDeleteBlankPage()
		}
		return fmt.Errorf("unknown page action %q", args[0])
	})
}

func runGrid(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required to switch presets")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("preset id %q: %w", args[0], err)
	}
	if err := config.NewYAMLEditor(cfgFile).SetActiveGrid(id); err != nil {
		return err
	}
	// Loading with the new preset rebuilds a layout of the old shape.
	return withLauncher(func(*launcher) error { return nil })
}

func runHide(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required to hide apps")
	}
	if err := config.NewYAMLEditor(cfgFile).SetHidden(args[0], !unhide); err != nil {
		return err
	}
	return withLauncher(func(*launcher) error { return nil })
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g := cfg.GridConfig()
	fmt.Printf("config: grid %s (%dx%d), %d presets\n", g.Layout, g.Rows, g.Columns, len(cfg.GetPresets()))

	st, err := openStore(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()
	snap, err := st.Load()
	if err != nil {
		return err
	}
	if err := grid.Validate(snap, g.Rows, g.Columns); err != nil {
		return fmt.Errorf("layout needs a rebuild: %w", err)
	}
	fmt.Printf("layout: %d items on %d pages, valid\n", len(snap.Items), snap.Geometry.PageCount)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()
	sq, ok := st.(*store.SQLiteStore)
	if !ok {
		return fmt.Errorf("history needs storage.backend: sqlite")
	}
	snaps, err := sq.History(historyN)
	if err != nil {
		return err
	}
	for i, s := range snaps {
		fmt.Printf("%3d  %d items, %d pages, %dx%d\n", -i, len(s.Items), s.Geometry.PageCount, s.Geometry.Rows, s.Geometry.Columns)
	}
	return nil
}

// printLayout draws each page as a grid of item labels.
func printLayout(s *grid.Snapshot, active int) {
	g := s.Geometry
	for p, items := range grid.Pages(s) {
		marker := ""
		if p == active {
			marker = " (active)"
		}
		fmt.Printf("page %d%s\n", p, marker)

		cells := make([][]string, g.Rows)
		for r := range cells {
			cells[r] = make([]string, g.Columns)
			for c := range cells[r] {
				cells[r][c] = "."
			}
		}
		for _, it := range items {
			for r := it.Position.Row; r < it.Position.Row+it.Area.H && r < g.Rows; r++ {
				for c := it.Position.Column; c < it.Position.Column+it.Area.W && c < g.Columns; c++ {
					cells[r][c] = cellLabel(it)
				}
			}
		}
		for _, row := range cells {
			fmt.Print(" ")
			for _, cell := range row {
				fmt.Printf(" %-12s", cell)
			}
			fmt.Println()
		}
	}
	if len(s.Dock) > 0 {
		fmt.Print("dock ")
		for _, it := range s.Dock {
			fmt.Printf(" %-12s", cellLabel(it))
		}
		fmt.Println()
	}
}

func cellLabel(it grid.Item) string {
	var s string
	switch it.Kind {
	case grid.KindFolder:
		s = fmt.Sprintf("[%s:%d]", it.Folder.Name, len(it.Apps()))
	case grid.KindWidget:
		s = "<" + it.Key + ">"
	default:
		s = it.Key
	}
	if len(s) > 12 {
		s = s[:11] + "~"
	}
	return s
}
