package lib

import (
	"regexp"
	"strings"
)

var reValidID = regexp.MustCompile("^[a-zA-Z0-9][a-zA-Z0-9-_.]*$")

func IsValidID(s string) bool {
	if !reValidID.MatchString(s) {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	return true
}

// Expand replaces every {key} in s by its value
func Expand(s string, values map[string]string) string {
	for k, v := range values {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
