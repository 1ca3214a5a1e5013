package palette

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// document is the on-disk catalog layout.
type document struct {
	Templates []Template `json:"templates" yaml:"templates"`
}

// LoadFile loads a catalog from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".json":
		return LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported palette file extension: %s", ext)
	}
}

// LoadYAML parses a YAML catalog document.
func LoadYAML(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return NewCatalog(doc.Templates...)
}

// LoadJSON parses a JSON catalog document.
func LoadJSON(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return NewCatalog(doc.Templates...)
}

// Default returns the built-in catalog. It panics if the embedded document
// is invalid, which is a build defect.
func Default() *Catalog {
	c, err := LoadYAML(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("palette: embedded catalog: %v", err))
	}
	return c
}
