package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext, adding one if path has none.
// Dotfiles like ".env" are treated as having no extension.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir, name := filepath.Split(path)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return filepath.Join(dir, name+ext)
}
