package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteAtomic writes data to a temp file next to path and renames it into place.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ListByModTime returns regular files in dir with the given extension,
// oldest first.
func ListByModTime(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type item struct {
		path string
		info os.FileInfo
	}
	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		items = append(items, item{path: filepath.Join(dir, entry.Name()), info: info})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].info.ModTime().Equal(items[j].info.ModTime()) {
			return items[i].path < items[j].path
		}
		return items[i].info.ModTime().Before(items[j].info.ModTime())
	})

	ret := make([]string, 0, len(items))
	for _, it := range items {
		ret = append(ret, it.path)
	}
	return ret, nil
}
