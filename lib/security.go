package lib

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// unnamedStem replaces stem of a name which has nothing but non-ASCII text
// before its extension
const unnamedStem = "unnamed"

// SecureFileName returns the last element of an untrusted name,
// reduced to ASCII letters, digits, '.', '_' and '-'.
// Whitespace becomes '_' and leading/trailing '.' and '_' are trimmed,
// so the result never refers to a parent or hidden entry.
// If the stem reduces to nothing, the extension is kept with stem "unnamed".
// It may return empty string.
func SecureFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean("/" + name))

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem != "" && ext != "" && secureName(stem) == "" {
		if ext := secureName(ext); ext != "" {
			return unnamedStem + "." + ext
		}
	}
	return secureName(name)
}

func secureName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r > unicode.MaxASCII:
			// drops combining marks left by NFKD decomposition
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
