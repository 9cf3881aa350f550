package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

// SupportedVersion is the scenario file format version this loader accepts.
const SupportedVersion = 1

//go:embed builtin/*.yaml
var builtinFS embed.FS

// scenarioFile is the on-disk YAML form of a Definition.
type scenarioFile struct {
	Version            int                      `yaml:"version"`
	ID                 string                   `yaml:"id"`
	Title              string                   `yaml:"title"`
	Category           string                   `yaml:"category"`
	Description        string                   `yaml:"description"`
	Difficulty         Difficulty               `yaml:"difficulty"`
	Duration           time.Duration            `yaml:"duration"`
	Objectives         []string                 `yaml:"objectives"`
	Skills             []string                 `yaml:"skills"`
	ExpectedPathLength int                      `yaml:"expected_path_length"`
	MaxDecisions       int                      `yaml:"max_decisions"`
	Scoring            *scoringBlock            `yaml:"scoring"`
	Graph              simulation.GraphDocument `yaml:"graph"`
}

type scoringBlock struct {
	Weights map[string]int `yaml:"weights"`
	Default int            `yaml:"default"`
}

// Parse decodes one scenario file. source is used in error messages.
func Parse(data []byte, source string) (Definition, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Definition{}, fmt.Errorf("%s: failed to parse scenario YAML: %w", source, err)
	}

	if f.Version != SupportedVersion {
		return Definition{}, fmt.Errorf("%s: unsupported scenario version: %d (expected %d)", source, f.Version, SupportedVersion)
	}
	if strings.TrimSpace(f.ID) == "" {
		return Definition{}, fmt.Errorf("%s: scenario id is required", source)
	}
	if strings.TrimSpace(f.Title) == "" {
		return Definition{}, fmt.Errorf("%s: scenario %s: title is required", source, f.ID)
	}
	if f.Difficulty == DifficultyUnknown {
		return Definition{}, fmt.Errorf("%s: scenario %s: difficulty is required", source, f.ID)
	}
	if f.ExpectedPathLength < 0 || f.MaxDecisions < 0 || f.Duration < 0 {
		return Definition{}, fmt.Errorf("%s: scenario %s: negative limits are not allowed", source, f.ID)
	}

	policy := simulation.ScoringPolicy(simulation.DefaultPolicy)
	if f.Scoring != nil {
		table, err := simulation.NewTablePolicy(f.Scoring.Weights, f.Scoring.Default)
		if err != nil {
			return Definition{}, fmt.Errorf("%s: scenario %s: %w", source, f.ID, err)
		}
		policy = table
	}

	graph, err := f.Graph.Build()
	if err != nil {
		return Definition{}, fmt.Errorf("%s: scenario %s: %w", source, f.ID, err)
	}

	return Definition{
		ID:                 f.ID,
		Title:              f.Title,
		Category:           f.Category,
		Description:        strings.TrimSpace(f.Description),
		Difficulty:         f.Difficulty,
		Duration:           f.Duration,
		Objectives:         f.Objectives,
		Skills:             f.Skills,
		ExpectedPathLength: f.ExpectedPathLength,
		MaxDecisions:       f.MaxDecisions,
		Policy:             policy,
		Graph:              graph,
	}, nil
}

// ParseFile reads and decodes a scenario file from disk.
func ParseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data, path)
}

// LoadFS parses every .yaml/.yml file directly under dir in fsys, ordered by name.
func LoadFS(fsys fs.FS, dir string) ([]Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		p := filepath.ToSlash(filepath.Join(dir, name))
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		def, err := Parse(data, p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadDir parses every scenario file in a directory on disk.
func LoadDir(dir string) ([]Definition, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// Builtin returns the scenarios shipped with the binary.
func Builtin() ([]Definition, error) {
	return LoadFS(builtinFS, "builtin")
}

// Load assembles a catalog from the builtin scenarios and an optional directory.
// Directory scenarios may not reuse a builtin id.
func Load(dir string, includeBuiltin bool) (*Catalog, error) {
	var defs []Definition
	if includeBuiltin {
		builtin, err := Builtin()
		if err != nil {
			return nil, err
		}
		defs = append(defs, builtin...)
	}
	if dir != "" {
		extra, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	return New(defs...)
}
