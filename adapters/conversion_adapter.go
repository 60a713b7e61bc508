package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib/types"
	"github.com/cloudcopper/mesher/ports"
)

// ConversionAdapter converts staged interchange file
// to the artifact mesh file by the geometry engine.
type ConversionAdapter struct {
	log    ports.Logger
	fs     ports.FS
	store  ports.TempStore
	engine ports.GeometryEngine
}

func NewConversionAdapter(log ports.Logger, f ports.FS, store ports.TempStore, engine ports.GeometryEngine) *ConversionAdapter {
	log = log.With(slog.String("entity", "ConversionAdapter"))
	return &ConversionAdapter{
		log:    log,
		fs:     f,
		store:  store,
		engine: engine,
	}
}

func (c *ConversionAdapter) Convert(ctx context.Context, id models.ArtifactID, interchangePath string) (string, error) {
	meshPath := c.store.Path(id, vo.ExtMesh)
	log := c.log.With(slog.String("artifactID", id), slog.String("interchangePath", interchangePath), slog.String("meshPath", meshPath))
	log.Debug("converting")

	size, err := c.convert(ctx, interchangePath, meshPath)
	if err != nil {
		log.Error("error converting file to mesh", slog.Any("err", err))
		// The engine may leave partial output
		if rerr := c.fs.Remove(meshPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Warn("unable to remove partial mesh", slog.Any("err", rerr))
		}
		return "", errors.ErrConversionFailed{Path: interchangePath, Err: err}
	}

	log.Info("converted", slog.Any("size", types.Size(size)))
	return meshPath, nil
}

func (c *ConversionAdapter) convert(ctx context.Context, src, dst string) (size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("geometry engine panic: %v", r)
		}
	}()

	doc, err := c.engine.ImportInterchange(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	if err := c.engine.ExportMesh(ctx, doc, dst); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	fi, err := c.fs.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	if fi.Size() == 0 {
		return 0, errors.ErrEmptyMesh
	}
	return fi.Size(), nil
}
