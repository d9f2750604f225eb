package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"batchscribe/internal/audio"
)

// Eligible lists regular files in dir whose extension is allow-listed, sorted
// by name. Job directories, artifacts of a previous interrupted run, and
// hidden files are skipped.
func Eligible(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || name == "" || name[0] == '.' {
			continue
		}
		if strings.HasSuffix(name, audio.ArtifactSuffix) || !audio.Eligible(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
