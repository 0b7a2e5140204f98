// Package loader reads natural-language test definitions from disk.
//
// Two source forms are supported: plain text or markdown files where
// each non-empty line is one step, and YAML files with an explicit name
// and step list. A directory argument is scanned (non-recursively) for
// files matching the configured glob patterns.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/relaihq/webpilot/pkg/types"
)

// DefaultPatterns match the test definition files picked up during a
// directory scan.
var DefaultPatterns = []string{"*.test.txt", "*.test.md", "*.test.yaml", "*.test.yml"}

// Loader loads test definitions from files and directories.
type Loader struct {
	patterns []glob.Glob
}

// New creates a loader. Empty patterns fall back to DefaultPatterns.
func New(patterns []string) (*Loader, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid test file pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}

	return &Loader{patterns: compiled}, nil
}

// Load resolves path to an ordered list of test definitions. A file
// path loads that single file regardless of patterns; a directory is
// scanned for matching files, sorted by name for deterministic order.
func (l *Loader) Load(path string) ([]types.TestDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}

	if !info.IsDir() {
		def, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		return []types.TestDefinition{def}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", path, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if l.matches(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no test definition files found in %s", path)
	}

	defs := make([]types.TestDefinition, 0, len(names))
	for _, name := range names {
		def, err := l.loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// matches reports whether a file name matches any configured pattern.
func (l *Loader) matches(name string) bool {
	for _, g := range l.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// loadFile loads one definition, dispatching on extension.
func (l *Loader) loadFile(path string) (types.TestDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TestDefinition{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return parseText(path, data)
	}
}

// yamlDefinition is the on-disk YAML form.
type yamlDefinition struct {
	Name  string   `yaml:"name"`
	Steps []string `yaml:"steps"`
}

func parseYAML(path string, data []byte) (types.TestDefinition, error) {
	var raw yamlDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return types.TestDefinition{}, fmt.Errorf("invalid test definition %s: %w", path, err)
	}

	name := raw.Name
	if name == "" {
		name = testName(path)
	}

	steps := make([]string, 0, len(raw.Steps))
	for _, step := range raw.Steps {
		if s := strings.TrimSpace(step); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return types.TestDefinition{}, fmt.Errorf("test definition %s has no steps", path)
	}

	return types.TestDefinition{Name: name, Source: string(data), Steps: steps}, nil
}

func parseText(path string, data []byte) (types.TestDefinition, error) {
	var steps []string
	for _, line := range strings.Split(string(data), "\n") {
		step := cleanStepLine(line)
		if step != "" {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return types.TestDefinition{}, fmt.Errorf("test definition %s has no steps", path)
	}

	return types.TestDefinition{
		Name:   testName(path),
		Source: string(data),
		Steps:  steps,
	}, nil
}

// cleanStepLine trims a raw line and strips list markers. Markdown
// headings and comment lines are skipped entirely.
func cleanStepLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}

	// Bullet markers
	for _, prefix := range []string{"- ", "* "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}

	// Numbered markers like "3. " or "3) "
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}

	return line
}

// testName derives a test name from a file path, dropping the
// ".test.<ext>" suffix when present.
func testName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimSuffix(name, ".test")
	return name
}
