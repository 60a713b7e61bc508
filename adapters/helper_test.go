package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

const testStepHeader = "ISO-10303-21;\n"

// testEngine pretends to convert STEP files by rewriting them as ascii STL
type testEngine struct {
	fs        afero.Fs
	exportErr error
	partial   bool
	panics    bool
	empty     bool
	calls     atomic.Int32
	running   atomic.Int32
	maxSeen   atomic.Int32
	block     chan struct{}
}

type testDocument struct {
	body string
}

func (e *testEngine) ImportInterchange(ctx context.Context, path string) (ports.Document, error) {
	e.calls.Add(1)
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(string(data), testStepHeader) {
		return nil, fmt.Errorf("%v: not a STEP file", path)
	}
	return &testDocument{strings.TrimPrefix(string(data), testStepHeader)}, nil
}

func (e *testEngine) ExportMesh(ctx context.Context, doc ports.Document, path string) error {
	n := e.running.Add(1)
	defer e.running.Add(-1)
	for {
		m := e.maxSeen.Load()
		if n <= m || e.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.panics {
		panic("segmentation fault")
	}
	if e.exportErr != nil {
		if e.partial {
			_ = afero.WriteFile(e.fs, path, []byte("solid partial\n"), 0o644)
		}
		return e.exportErr
	}
	if e.empty {
		return lib.CreateFile(e.fs, path, "")
	}
	body := doc.(*testDocument).body
	return afero.WriteFile(e.fs, path, []byte("solid converted\n"+body+"endsolid converted\n"), 0o644)
}
