package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// YAMLEditor provides structured editing of the YAML config file using
// the yaml.v3 Node API, preserving comments and formatting.
type YAMLEditor struct {
	path string
}

// NewYAMLEditor creates a new editor for the given config file path.
func NewYAMLEditor(path string) *YAMLEditor {
	return &YAMLEditor{path: path}
}

// SetActiveGrid updates grid.active. The id must name a preset, either in
// the file or among the defaults when the file declares none.
func (e *YAMLEditor) SetActiveGrid(id int) error {
	doc, root, err := e.load()
	if err != nil {
		return err
	}

	gridNode := ensureMapping(root, "grid")
	if !presetExists(gridNode, id) {
		return fmt.Errorf("grid preset %d not found", id)
	}

	value := strconv.Itoa(id)
	if activeNode := findMappingKey(gridNode, "active"); activeNode != nil {
		activeNode.Value = value
		activeNode.Tag = "!!int"
	} else {
		gridNode.Content = append(gridNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "active"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!int"},
		)
	}

	return e.save(doc)
}

func presetExists(gridNode *yaml.Node, id int) bool {
	presets := findMappingKey(gridNode, "presets")
	if presets == nil || presets.Kind != yaml.SequenceNode || len(presets.Content) == 0 {
		for _, p := range DefaultPresets {
			if p.ID == id {
				return true
			}
		}
		return false
	}
	for _, p := range presets.Content {
		if v := findMappingKey(p, "id"); v != nil && v.Value == strconv.Itoa(id) {
			return true
		}
	}
	return false
}

// AddGridPreset appends a preset to grid.presets.
func (e *YAMLEditor) AddGridPreset(p GridPreset) error {
	if p.Rows <= 0 || p.Columns <= 0 {
		return fmt.Errorf("grid preset %d: rows and columns must be positive", p.ID)
	}
	doc, root, err := e.load()
	if err != nil {
		return err
	}

	gridNode := ensureMapping(root, "grid")
	if presetExists(gridNode, p.ID) && findMappingKey(gridNode, "presets") != nil {
		return fmt.Errorf("grid preset %d already exists", p.ID)
	}
	presets := findMappingKey(gridNode, "presets")
	if presets == nil {
		gridNode.Content = append(gridNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "presets"},
			&yaml.Node{Kind: yaml.SequenceNode},
		)
		presets = gridNode.Content[len(gridNode.Content)-1]
	}
	if p.Layout == "" {
		p.Layout = fmt.Sprintf("%dX%d", p.Rows, p.Columns)
	}

	entry := &yaml.Node{Kind: yaml.MappingNode}
	entry.Content = append(entry.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "id"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(p.ID), Tag: "!!int"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "layout"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: p.Layout, Style: yaml.DoubleQuotedStyle},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "rows"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(p.Rows), Tag: "!!int"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "columns"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(p.Columns), Tag: "!!int"},
	)
	presets.Content = append(presets.Content, entry)

	return e.save(doc)
}

// SetHidden adds key to, or removes it from, the hidden list.
func (e *YAMLEditor) SetHidden(key string, hidden bool) error {
	doc, root, err := e.load()
	if err != nil {
		return err
	}

	list := findMappingKey(root, "hidden")
	if list == nil {
		if !hidden {
			return nil
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "hidden"},
			&yaml.Node{Kind: yaml.SequenceNode},
		)
		list = root.Content[len(root.Content)-1]
	}

	idx := -1
	for i, n := range list.Content {
		if n.Value == key {
			idx = i
			break
		}
	}
	switch {
	case hidden && idx < 0:
		list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key})
	case !hidden && idx >= 0:
		list.Content = append(list.Content[:idx], list.Content[idx+1:]...)
	default:
		return nil
	}

	return e.save(doc)
}

func (e *YAMLEditor) load() (*yaml.Node, *yaml.Node, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil, fmt.Errorf("invalid YAML document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("root is not a mapping")
	}

	return &doc, root, nil
}

func (e *YAMLEditor) save(doc *yaml.Node) error {
	out, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("opening config for write: %w", err)
	}
	defer out.Close()

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// ensureMapping returns the mapping under key, creating it when absent.
func ensureMapping(parent *yaml.Node, key string) *yaml.Node {
	if n := findMappingKey(parent, key); n != nil && n.Kind == yaml.MappingNode {
		return n
	}
	if idx := findMappingKeyIndex(parent, key); idx >= 0 {
		parent.Content[idx+1] = &yaml.Node{Kind: yaml.MappingNode}
		return parent.Content[idx+1]
	}
	parent.Content = append(parent.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.MappingNode},
	)
	return parent.Content[len(parent.Content)-1]
}

// findMappingKey finds the value node for a key in a MappingNode.
func findMappingKey(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// findMappingKeyIndex returns the index of a key in a MappingNode's Content, or -1.
func findMappingKeyIndex(mapping *yaml.Node, key string) int {
	if mapping.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}
