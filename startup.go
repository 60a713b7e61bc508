package mesher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cloudcopper/mesher/adapters"
	"github.com/cloudcopper/mesher/infra/disk"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

// prepareTempFolder creates temp folder if needed
// and removes artifact files left there by previous run.
// Other files are not touched, as the folder may be shared.
func prepareTempFolder(log ports.Logger, f ports.FS, folder string) (int, error) {
	log = log.With(slog.String("folder", folder))
	if err := f.MkdirAll(folder, 0o700); err != nil {
		return 0, err
	}
	if ok, _ := afero.DirExists(f, folder); !ok {
		return 0, lib.ErrNoSuchDirectory{Path: folder}
	}

	removed := 0
	walk := disk.NewFilepathWalk(f)
	err := walk.Walk(folder, func(name string, info fs.FileInfo, err error) (bool, error) {
		if err != nil {
			return false, err
		}
		if info.IsDir() {
			if name == folder {
				return true, nil
			}
			return true, fs.SkipDir
		}
		if !adapters.IsArtifactFile(name) {
			return true, nil
		}
		if err := f.Remove(name); err != nil && !os.IsNotExist(err) {
			log.Warn("unable to remove stale file", slog.String("file", name), slog.Any("err", err))
			return true, nil
		}
		log.Debug("stale file removed", slog.String("file", filepath.Base(name)))
		removed++
		return true, nil
	})
	if removed > 0 {
		log.Info("stale files removed", slog.Int("count", removed))
	}
	return removed, err
}
