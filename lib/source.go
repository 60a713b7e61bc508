package lib

import (
	"bytes"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// BytesSource returns byte source producing copy of b
func BytesSource(b []byte) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		return bytes.NewReader(b), nil
	}
}

// StringSource returns byte source producing s
func StringSource(s string) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		return strings.NewReader(s), nil
	}
}

// FileSource returns byte source opening name on fs at the moment of staging
func FileSource(fs afero.Fs, name string) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		return fs.Open(name)
	}
}
