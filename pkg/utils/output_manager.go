package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager organizes exported files into one directory per pipeline
type OutputManager struct {
	BaseOutputDir string
}

func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// PipelineDir creates the export directory of a pipeline
func (om *OutputManager) PipelineDir(pipeline string) (string, error) {
	dir := filepath.Join(om.BaseOutputDir, filepath.Base(pipeline))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// FilePath returns where an export file of a pipeline lives. Directory parts
// of fileName are dropped.
func (om *OutputManager) FilePath(pipeline, fileName string) (string, error) {
	dir, err := om.PipelineDir(pipeline)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// DownloadURL is the API path serving an exported file
func (om *OutputManager) DownloadURL(pipeline, fileName string) string {
	return fmt.Sprintf("/api/v1/exports/%s/%s", filepath.Base(pipeline), filepath.Base(fileName))
}

// FileType determines the export format from the file extension
func (om *OutputManager) FileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}

// Lookup resolves an existing export file, reporting whether it exists
func (om *OutputManager) Lookup(pipeline, fileName string) (string, bool) {
	p := filepath.Join(om.BaseOutputDir, filepath.Base(pipeline), filepath.Base(fileName))
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
