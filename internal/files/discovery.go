package files

import (
	"fmt"
	"os"
	"sort"
)

// ListDirectory returns the entry names of dir, sorted, with directories
// suffixed by a slash. Used as a diagnostic when an expected input is missing.
func ListDirectory(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += string(os.PathSeparator)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
