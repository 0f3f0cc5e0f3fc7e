// Package catalog lists the installed applications the desktop lays out
// and notifies subscribers when that list changes.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownApp = errors.New("catalog: unknown app")
	ErrInstalled  = errors.New("catalog: app already installed")
)

// Item is one installed application.
type Item struct {
	BundleName  string `yaml:"bundle" json:"bundleName"`
	ModuleName  string `yaml:"module,omitempty" json:"moduleName,omitempty"`
	AbilityName string `yaml:"ability,omitempty" json:"abilityName,omitempty"`
	Label       string `yaml:"label,omitempty" json:"label,omitempty"`
	Badge       int    `yaml:"badge,omitempty" json:"badge,omitempty"`
}

// Key is the stable identity of the app on the desktop.
func (it Item) Key() string {
	key := it.BundleName
	if it.ModuleName != "" {
		key += "/" + it.ModuleName
	}
	if it.AbilityName != "" {
		key += "/" + it.AbilityName
	}
	return key
}

// ChangeKind says what happened to an app.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Updated
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// Change is pushed to subscribers.
type Change struct {
	Kind ChangeKind
	Item Item
}

// Provider is a source of installed apps.
type Provider interface {
	List() []Item
	Subscribe(fn func(Change)) (unsubscribe func())
}

type fileFormat struct {
	Apps []Item `yaml:"apps"`
}

// File is a Provider backed by a YAML file of the form
//
//	apps:
//	  - bundle: com.example.mail
//	    module: entry
//	    ability: MainAbility
//	    label: Mail
//
// Install, Uninstall and SetBadge rewrite the file and notify subscribers.
type File struct {
	path string

	mu     sync.Mutex
	apps   []Item
	nextID int
	subs   map[int]func(Change)
}

// Open loads the catalog file. A missing file yields an empty catalog
// that is created on the first write.
func Open(path string) (*File, error) {
	f := &File{path: path, subs: make(map[int]func(Change))}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewMemory returns a catalog that is never written to disk.
func NewMemory(apps ...Item) *File {
	return &File{apps: append([]Item(nil), apps...), subs: make(map[int]func(Change))}
}

func (f *File) load() error {
	if f.path == "" {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.apps = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	seen := make(map[string]bool)
	f.apps = nil
	for _, it := range ff.Apps {
		if it.BundleName == "" || seen[it.Key()] {
			continue
		}
		seen[it.Key()] = true
		f.apps = append(f.apps, it)
	}
	return nil
}

func (f *File) save() error {
	if f.path == "" {
		return nil
	}
	data, err := yaml.Marshal(fileFormat{Apps: f.apps})
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// List returns the installed apps in catalog order.
func (f *File) List() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Item(nil), f.apps...)
}

// Get returns the app with the given key.
func (f *File) Get(key string) (Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(key)
	if i < 0 {
		return Item{}, false
	}
	return f.apps[i], true
}

func (f *File) index(key string) int {
	for i, it := range f.apps {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// Subscribe registers fn for changes.
func (f *File) Subscribe(fn func(Change)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *File) notify(c Change) {
	f.mu.Lock()
	subs := make([]func(Change), 0, len(f.subs))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Install adds an app.
func (f *File) Install(it Item) error {
	f.mu.Lock()
	if f.index(it.Key()) >= 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInstalled, it.Key())
	}
	f.apps = append(f.apps, it)
	err := f.save()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.notify(Change{Kind: Added, Item: it})
	return nil
}

// Uninstall removes an app.
func (f *File) Uninstall(key string) error {
	f.mu.Lock()
	i := f.index(key)
	if i < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownApp, key)
	}
	it := f.apps[i]
	f.apps = append(f.apps[:i], f.apps[i+1:]...)
	err := f.save()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.notify(Change{Kind: Removed, Item: it})
	return nil
}

// SetBadge updates an app's badge count.
func (f *File) SetBadge(key string, n int) error {
	f.mu.Lock()
	i := f.index(key)
	if i < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownApp, key)
	}
	f.apps[i].Badge = n
	it := f.apps[i]
	err := f.save()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.notify(Change{Kind: Updated, Item: it})
	return nil
}

// Reload re-reads the file and pushes the differences to subscribers.
func (f *File) Reload() error {
	f.mu.Lock()
	before := append([]Item(nil), f.apps...)
	if err := f.load(); err != nil {
		f.mu.Unlock()
		return err
	}
	after := append([]Item(nil), f.apps...)
	f.mu.Unlock()

	for _, c := range Diff(before, after) {
		f.notify(c)
	}
	return nil
}

// Diff returns the changes that turn before into after.
func Diff(before, after []Item) []Change {
	old := make(map[string]Item, len(before))
	for _, it := range before {
		old[it.Key()] = it
	}
	var out []Change
	seen := make(map[string]bool, len(after))
	for _, it := range after {
		seen[it.Key()] = true
		prev, ok := old[it.Key()]
		switch {
		case !ok:
			out = append(out, Change{Kind: Added, Item: it})
		case prev != it:
			out = append(out, Change{Kind: Updated, Item: it})
		}
	}
	for _, it := range before {
		if !seen[it.Key()] {
			out = append(out, Change{Kind: Removed, Item: it})
		}
	}
	return out
}
