package mesher

import (
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/ports"
)

// LifecycleGuard owns staged paths of one artifact
// and removes all of them exactly once on Release.
// A path tracked after Release is removed immediately,
// so late writers cannot leak files.
type LifecycleGuard struct {
	log      ports.Logger
	fs       ports.FS
	mu       sync.Mutex
	paths    []string
	released bool
}

func NewLifecycleGuard(log ports.Logger, f ports.FS) *LifecycleGuard {
	return &LifecycleGuard{
		log: log.With(slog.String("entity", "LifecycleGuard")),
		fs:  f,
	}
}

// Track registers path for removal.
// It returns false if guard is already released
// and the path was removed right away.
func (g *LifecycleGuard) Track(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		g.remove(path)
		return false
	}
	if !slices.Contains(g.paths, path) {
		g.paths = append(g.paths, path)
	}
	return true
}

// Release removes every tracked path. Second and later calls do nothing.
// Removal failures are logged only.
func (g *LifecycleGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	for _, path := range g.paths {
		g.remove(path)
	}
}

func (g *LifecycleGuard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

func (g *LifecycleGuard) remove(path string) {
	log := g.log.With(slog.String("path", path))
	err := g.fs.Remove(path)
	switch {
	case err == nil:
		log.Debug("removed")
	case errors.Is(err, os.ErrNotExist):
		log.Debug("already absent")
	default:
		log.Error("unable to remove", slog.Any("err", errors.ErrCleanupFailed{Path: path, Err: err}))
	}
}
