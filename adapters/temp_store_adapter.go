package adapters

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/lib/types"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

const partSuffix = ".part"

// TempStoreAdapter stages uploads as {id}.{ext} files inside the temp folder.
// The content is written to hidden part file first and renamed once complete.
type TempStoreAdapter struct {
	log     ports.Logger
	fs      ports.FS
	folder  string
	maxSize int64
}

// NewTempStoreAdapter creates temp store over existing folder.
// The maxSize limits staged file size, zero means no limit.
func NewTempStoreAdapter(log ports.Logger, f ports.FS, folder string, maxSize int64) (*TempStoreAdapter, error) {
	log = log.With(slog.String("entity", "TempStoreAdapter"))
	exist, _ := afero.DirExists(f, folder)
	if !exist {
		return nil, lib.ErrNoSuchDirectory{Path: folder}
	}

	s := &TempStoreAdapter{
		log:     log,
		fs:      f,
		folder:  filepath.Clean(folder),
		maxSize: maxSize,
	}
	log.Info("created", slog.String("folder", s.folder), slog.Any("maxSize", types.Size(maxSize)))
	return s, nil
}

func (s *TempStoreAdapter) Folder() string {
	return s.folder
}

func (s *TempStoreAdapter) Path(id models.ArtifactID, ext string) string {
	lib.Assert(id != "")
	lib.Assert(ext != "")
	return filepath.Join(s.folder, id+"."+ext)
}

func (s *TempStoreAdapter) Stage(src ports.ByteSource, id models.ArtifactID, ext string) (string, error) {
	path := s.Path(id, ext)
	log := s.log.With(slog.String("artifactID", id), slog.String("path", path))

	size, err := s.stage(log, src, id, ext, path)
	if err != nil {
		log.Error("unable to stage", slog.Any("err", err))
		return "", errors.ErrStagingFailed{Path: path, Err: err}
	}
	log.Debug("staged", slog.Any("size", types.Size(size)))
	return path, nil
}

func (s *TempStoreAdapter) stage(log ports.Logger, src ports.ByteSource, id models.ArtifactID, ext, path string) (int64, error) {
	r, err := src()
	if err != nil {
		return 0, err
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	f, err := afero.TempFile(s.fs, s.folder, "."+id+"."+ext+".*"+partSuffix)
	if err != nil {
		return 0, err
	}
	part := f.Name()

	n, err := s.copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.fs.Rename(part, path)
	}
	if err != nil {
		if rerr := s.fs.Remove(part); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Warn("unable to remove part file", slog.String("part", part), slog.Any("err", rerr))
		}
		return 0, err
	}
	return n, nil
}

func (s *TempStoreAdapter) copy(w io.Writer, r io.Reader) (int64, error) {
	if s.maxSize <= 0 {
		return io.Copy(w, r)
	}
	n, err := io.Copy(w, io.LimitReader(r, s.maxSize+1))
	if err == nil && n > s.maxSize {
		err = errors.ErrUploadTooLarge
	}
	return n, err
}

// IsPartFile returns true for names of part files left by staging
func IsPartFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, partSuffix)
}

// IsArtifactFile returns true if name is staged file or part file
// of any artifact, so it can be removed as orphan.
func IsArtifactFile(name string) bool {
	base := filepath.Base(name)
	if IsPartFile(base) {
		base = strings.TrimPrefix(base, ".")
	}
	id, rest, ok := strings.Cut(base, ".")
	if !ok || !IsArtifactID(id) {
		return false
	}
	ext, _, _ := strings.Cut(rest, ".")
	return ext == vo.ExtMesh || ext == vo.ExtInterchange
}
