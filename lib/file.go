package lib

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// CreateFile creates file name and writes there content.
// The file must not exists.
func CreateFile(fs afero.Fs, name, content string) error {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// CopyFile copies oldname from src to newname at dst.
// The newname is written through a temporary file in the same directory
// and renamed in place, so readers never observe partial content.
func CopyFile(src afero.Fs, oldname string, dst afero.Fs, newname string) (int64, error) {
	in, err := src.Open(oldname)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := newname + ".part"
	out, err := dst.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = dst.Rename(tmp, newname)
	}
	if err != nil {
		_ = dst.Remove(tmp)
		return 0, err
	}
	return n, nil
}
