package adapters

import (
	"context"

	"github.com/cloudcopper/mesher/ports"
	"golang.org/x/sync/semaphore"
)

// SerializedEngine limits number of concurrent calls to the wrapped engine,
// as geometry engines are not assumed to be reentrant.
type SerializedEngine struct {
	engine ports.GeometryEngine
	sem    *semaphore.Weighted
}

func NewSerializedEngine(engine ports.GeometryEngine, concurrency int) *SerializedEngine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SerializedEngine{
		engine: engine,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
}

func (e *SerializedEngine) ImportInterchange(ctx context.Context, path string) (ports.Document, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)
	return e.engine.ImportInterchange(ctx, path)
}

func (e *SerializedEngine) ExportMesh(ctx context.Context, doc ports.Document, path string) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)
	return e.engine.ExportMesh(ctx, doc, path)
}
