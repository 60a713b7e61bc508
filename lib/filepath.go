package lib

import (
	"path/filepath"
	"strings"
)

// IsAbs covers problem of  filepath.IsAbs which only checks
// first element of path and allows .. inside.
// The filepath.Abs meanwhile does filepath.Clean.
// So this function returns true, if filepath.Abs returns very same value
func IsAbs(path string) bool {
	if abs, err := filepath.Abs(path); err != nil || abs != path {
		return false
	}

	return true
}

// IsWithin returns true if path is located directly inside dir
func IsWithin(dir, path string) bool {
	return filepath.Dir(path) == filepath.Clean(dir)
}

// SplitExt returns base name without extension and lower case extension without dot.
// Example: "Part.STEP" returns "Part", "step"
func SplitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base, strings.ToLower(strings.TrimPrefix(ext, "."))
}
