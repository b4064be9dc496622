package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes generated content to a file under the output directory.
//
// The function ensures:
//   - The output path is relative to outputDir (no path traversal)
//   - Parent directories are created if needed
//
// Existing files are overwritten: regeneration is idempotent and incremental
// runs may legitimately re-render same-day output.
func WriteFile(outputDir, relativePath string, content []byte) (string, error) {
	if outputDir == "" {
		return "", errors.New("output directory is required")
	}
	if relativePath == "" {
		return "", errors.New("output path is required")
	}

	cleanRel := filepath.Clean(relativePath)
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "..") {
		return "", errors.New("output path must be relative to the output directory")
	}

	fullPath := filepath.Join(outputDir, cleanRel)
	rel, err := filepath.Rel(outputDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("output path escapes the output directory")
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}

	return fullPath, nil
}
