package infra

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudcopper/mesher/lib"
)

// LayerFileSystem reads file from first layer having it.
// It is used to look up config file in working dir, root dir and built-in defaults.
type LayerFileSystem struct {
	layers []fs.FS
}

const ErrWrongParamType = lib.Error("wrong param type")

// NewLayerFileSystem accepts layers in priority order:
//   - string - os directory, or ${ENV} naming such directory
//   - func() (string, error) - os directory resolved now, skipped if empty
//   - fs.FS - embed.FS or any other
//   - *LayerFileSystem - layers of another
func NewLayerFileSystem(params ...interface{}) (*LayerFileSystem, error) {
	l := &LayerFileSystem{}
	for _, p := range params {
		if err := l.Append(p); err != nil {
			return l, err
		}
	}
	return l, nil
}

func (l *LayerFileSystem) Append(p interface{}) error {
	switch v := p.(type) {
	case func() (string, error):
		dir, err := v()
		if err != nil {
			return err
		}
		l.appendDir(dir)
	case string:
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
			v = os.Getenv(v[2 : len(v)-1])
		}
		l.appendDir(v)
	case *LayerFileSystem:
		l.layers = append(l.layers, v.layers...)
	case fs.FS:
		l.layers = append(l.layers, v)
	default:
		return ErrWrongParamType
	}
	return nil
}

func (l *LayerFileSystem) appendDir(dir string) {
	if dir == "" {
		return
	}
	lib.Assert(!strings.Contains(dir, ".."))
	l.layers = append(l.layers, os.DirFS(filepath.Clean(dir)))
}

func (l *LayerFileSystem) Len() int {
	return len(l.layers)
}

func (l *LayerFileSystem) Open(name string) (fs.File, error) {
	for _, layer := range l.layers {
		f, err := layer.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return f, err
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (l *LayerFileSystem) ReadFile(name string) ([]byte, error) {
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
}
