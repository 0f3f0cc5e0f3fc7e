// Package store persists layout snapshots. The on-disk shape is a single
// JSON document with a layoutDescription header, a flat layoutInfo list and
// the dockInfo list; the same document is written to a file or to an SQLite
// row.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wcatz/launcher-grid/internal/grid"
)

type document struct {
	LayoutDescription description `json:"layoutDescription"`
	LayoutInfo        []entry     `json:"layoutInfo"`
	DockInfo          []entry     `json:"dockInfo,omitempty"`
}

type description struct {
	PageCount int `json:"pageCount"`
	Row       int `json:"row"`
	Column    int `json:"column"`
}

type entry struct {
	BundleName  string    `json:"bundleName,omitempty"`
	KeyName     string    `json:"keyName,omitempty"`
	AppName     string    `json:"appName,omitempty"`
	FolderID    string    `json:"folderId,omitempty"`
	FolderName  string    `json:"folderName,omitempty"`
	CardID      int       `json:"cardId,omitempty"`
	Dimension   string    `json:"dimension,omitempty"`
	TypeID      grid.Kind `json:"typeId"`
	Area        [2]int    `json:"area"`
	Page        int       `json:"page"`
	Row         int       `json:"row"`
	Column      int       `json:"column"`
	LayoutInfo  [][]entry `json:"layoutInfo,omitempty"`
	BadgeNumber int       `json:"badgeNumber,omitempty"`
}

const cardKeyPrefix = "card-"

// CardKey is the item key of the widget with the given id.
func CardKey(id int) string {
	return cardKeyPrefix + strconv.Itoa(id)
}

// CardID parses a key built by CardKey.
func CardID(key string) (int, bool) {
	if !strings.HasPrefix(key, cardKeyPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(key, cardKeyPrefix))
	return id, err == nil
}

// Encode renders a snapshot in the persisted layout format. Open-folder add
// sentinels are dropped.
func Encode(s *grid.Snapshot) ([]byte, error) {
	doc := document{
		LayoutDescription: description{
			PageCount: s.Geometry.PageCount,
			Row:       s.Geometry.Rows,
			Column:    s.Geometry.Columns,
		},
		LayoutInfo: make([]entry, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		if it.Kind == grid.KindAdd {
			continue
		}
		doc.LayoutInfo = append(doc.LayoutInfo, toEntry(it))
	}
	for i, it := range s.Dock {
		e := toEntry(it)
		e.Page, e.Row, e.Column = 0, 0, i
		doc.DockInfo = append(doc.DockInfo, e)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling layout: %w", err)
	}
	return append(data, '\n'), nil
}

func toEntry(it grid.Item) entry {
	e := entry{
		TypeID:      it.Kind,
		Area:        [2]int{it.Area.W, it.Area.H},
		Page:        it.Position.Page,
		Row:         it.Position.Row,
		Column:      it.Position.Column,
		BadgeNumber: it.Badge,
	}
	switch it.Kind {
	case grid.KindFolder:
		e.FolderID = it.Key
		if it.Folder != nil {
			e.FolderName = it.Folder.Name
			for _, page := range it.Folder.Pages {
				var children []entry
				for _, child := range page {
					if child.Kind != grid.KindAdd {
						children = append(children, toEntry(child))
					}
				}
				if len(children) > 0 {
					e.LayoutInfo = append(e.LayoutInfo, children)
				}
			}
		}
	case grid.KindWidget:
		if it.Widget != nil {
			e.CardID = it.Widget.ID
			e.Dimension = it.Widget.Dimension
			e.KeyName = it.Widget.Source
		}
		e.BundleName = it.BundleName
	default:
		e.BundleName = it.BundleName
		e.KeyName = it.Key
		e.AppName = it.Name
	}
	return e
}

// Decode parses a persisted layout. An empty input decodes to nil so the
// caller rebuilds; malformed JSON is an error.
func Decode(data []byte) (*grid.Snapshot, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	s := &grid.Snapshot{
		Geometry: grid.Geometry{
			PageCount: doc.LayoutDescription.PageCount,
			Rows:      doc.LayoutDescription.Row,
			Columns:   doc.LayoutDescription.Column,
		},
		Items: make([]grid.Item, 0, len(doc.LayoutInfo)),
	}
	for _, e := range doc.LayoutInfo {
		if e.TypeID == grid.KindAdd {
			continue
		}
		s.Items = append(s.Items, fromEntry(e))
	}
	for _, e := range doc.DockInfo {
		it := fromEntry(e)
		it.Position = grid.Position{}
		s.Dock = append(s.Dock, it)
	}
	return s, nil
}

func fromEntry(e entry) grid.Item {
	it := grid.Item{
		Kind:     e.TypeID,
		Position: grid.Position{Page: e.Page, Row: e.Row, Column: e.Column},
		Area:     grid.Area{W: e.Area[0], H: e.Area[1]},
		Badge:    e.BadgeNumber,
	}
	if it.Area.W == 0 && it.Area.H == 0 {
		it.Area = grid.Unit
	}
	switch e.TypeID {
	case grid.KindFolder:
		it.Key = e.FolderID
		f := &grid.Folder{ID: e.FolderID, Name: e.FolderName}
		for _, page := range e.LayoutInfo {
			var children []grid.Item
			for _, c := range page {
				if c.TypeID != grid.KindAdd {
					children = append(children, fromEntry(c))
				}
			}
			if len(children) > 0 {
				f.Pages = append(f.Pages, children)
			}
		}
		it.Folder = f
	case grid.KindWidget:
		it.Key = CardKey(e.CardID)
		it.BundleName = e.BundleName
		it.Widget = &grid.Widget{ID: e.CardID, Dimension: e.Dimension, Source: e.KeyName}
	default:
		it.BundleName = e.BundleName
		it.Key = e.KeyName
		if it.Key == "" {
			it.Key = e.BundleName
		}
		it.Name = e.AppName
	}
	return it
}
