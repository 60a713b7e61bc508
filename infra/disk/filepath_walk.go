package disk

import (
	"io/fs"

	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

type FilepathWalk struct {
	fs ports.FS
}

func NewFilepathWalk(f ports.FS) FilepathWalk {
	return FilepathWalk{f}
}

// Walk visits root and everything below in lexical order.
// The fn returns false to stop the walk, or fs.SkipDir as error
// to skip the directory.
func (f *FilepathWalk) Walk(root string, fn func(name string, info fs.FileInfo, err error) (bool, error)) error {
	return afero.Walk(f.fs, root, func(path string, info fs.FileInfo, err error) error {
		ok, err := fn(path, info, err)
		if !ok {
			return fs.SkipAll
		}
		return err
	})
}
