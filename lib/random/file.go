package random

import (
	"strings"
)

// FileName returns random file name with one of given extensions.
// The extension case is randomized as uploads come with any case.
func FileName(n int, exts ...string) string {
	ext := Element(exts)
	if Value([]int{0, 1}) == 1 {
		ext = strings.ToUpper(ext)
	}
	return strings.ReplaceAll(Words([]int{1, n}), " ", "_") + "." + ext
}
