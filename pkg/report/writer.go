package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/relaihq/webpilot/pkg/types"
)

// Writer renders finalized reports to an output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// WriteTest writes one test's JSON and HTML reports. Returns the paths
// written.
func (w *Writer) WriteTest(rep *types.TestReport) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := sanitizeFileName(rep.TestName)

	jsonPath := filepath.Join(w.outputDir, base+".json")
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write test report JSON: %w", err)
	}

	htmlPath := filepath.Join(w.outputDir, base+".html")
	if err := w.writeHTML(htmlPath, rep); err != nil {
		return nil, err
	}

	return []string{jsonPath, htmlPath}, nil
}

// WriteSummary writes the suite-level summary.json.
func (w *Writer) WriteSummary(summary SuiteSummary) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "summary.json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal suite summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write suite summary: %w", err)
	}
	return path, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFileName turns a test name into a safe file base name.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeFileChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "test"
	}
	return name
}
