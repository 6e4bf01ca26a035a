package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves every file the tools touch against a single base directory.
// The base is the working directory: both tools have always read and written
// their files next to where they are launched.
type Paths struct {
	BaseDir string
	LogsDir string
}

// GetPaths returns the paths rooted at the current working directory.
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewPaths(wd), nil
}

// NewPaths returns paths rooted at baseDir.
func NewPaths(baseDir string) *Paths {
	return &Paths{
		BaseDir: baseDir,
		LogsDir: filepath.Join(baseDir, DefaultLogsDir),
	}
}

// Resolve returns path unchanged when absolute, otherwise joined to BaseDir.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
