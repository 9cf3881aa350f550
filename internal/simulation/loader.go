package simulation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GraphDocument is the serialized form of a decision graph.
type GraphDocument struct {
	Version int             `json:"version,omitempty" yaml:"version,omitempty"`
	RootID  string          `json:"rootId" yaml:"rootId"`
	Nodes   map[string]Node `json:"nodes" yaml:"nodes"`
}

// Build validates the document and returns its graph.
func (d *GraphDocument) Build() (*Graph, error) {
	if d.Version != 0 && d.Version != 1 {
		return nil, fmt.Errorf("unsupported graph document version: %d", d.Version)
	}
	return Build(d.Nodes, d.RootID)
}

// Document returns the serialized form of g.
func (g *Graph) Document() GraphDocument {
	return GraphDocument{
		Version: 1,
		RootID:  g.rootID,
		Nodes:   g.Nodes(),
	}
}

// DecodeJSON reads a JSON graph document and builds it.
func DecodeJSON(r io.Reader) (*Graph, error) {
	var doc GraphDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}
	return doc.Build()
}

// DecodeYAML reads a YAML graph document and builds it.
func DecodeYAML(r io.Reader) (*Graph, error) {
	var doc GraphDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph YAML: %w", err)
	}
	return doc.Build()
}

// LoadGraphFile loads a graph document from a .json, .yaml or .yml file.
func LoadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f)
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return nil, fmt.Errorf("unsupported graph file extension: %s", filepath.Ext(path))
	}
}
