package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML
	ErrUnsupportedFormat = errors.New("unsupported menu format")
	// ErrEmptyMenu is returned when a file decodes to no items
	ErrEmptyMenu = errors.New("menu has no items")
)

// Format identifies a menu file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the decoder from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Load reads a menu file. The document may be an object with an "items"
// list or a bare list of items.
func Load(path string) (*types.Menu, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}

	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Decode parses menu data in the given format
func Decode(data []byte, format Format) (*types.Menu, error) {
	var (
		m   *types.Menu
		err error
	)
	switch format {
	case FormatJSON:
		m, err = decodeJSON(data)
	case FormatYAML:
		m, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(m.Items) == 0 {
		return nil, ErrEmptyMenu
	}
	return m, nil
}

// ValidCount reports how many items carry the fields required for indexing
func ValidCount(m *types.Menu) int {
	if m == nil {
		return 0
	}
	n := 0
	for i := range m.Items {
		if m.Items[i].Validate() == nil {
			n++
		}
	}
	return n
}

func decodeJSON(data []byte) (*types.Menu, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []types.MenuItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return &types.Menu{Items: items}, nil
	}

	var m types.Menu
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeYAML(data []byte) (*types.Menu, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return &types.Menu{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var items []types.MenuItem
		if err := root.Decode(&items); err != nil {
			return nil, err
		}
		return &types.Menu{Items: items}, nil
	}

	var m types.Menu
	if err := root.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
