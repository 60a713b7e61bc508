package mesher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
)

const ErrArtifactNotReady = lib.Error("artifact not ready")

// Artifact is transient state of one upload:
// an id, up to two staged files and their lifecycle.
// Artifact is created by ArtifactService.NewArtifact
// and must be disposed by its owner.
type Artifact struct {
	id        models.ArtifactID
	filename  string
	format    vo.Format
	createdAt time.Time
	log       ports.Logger
	fs        ports.FS
	guard     *LifecycleGuard
	// notify is called under mu on every state change
	notify    func(*Artifact)
	scope     context.Context
	stopAfter func() bool

	mu              sync.Mutex
	state           vo.ArtifactState
	detail          string
	meshPath        string
	interchangePath string
}

func (a *Artifact) ID() models.ArtifactID { return a.id }

// Filename returns sanitized upload filename
func (a *Artifact) Filename() string { return a.filename }

func (a *Artifact) Format() vo.Format { return a.format }

func (a *Artifact) CreatedAt() time.Time { return a.createdAt }

func (a *Artifact) State() vo.ArtifactState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Detail returns error text of failed artifact
func (a *Artifact) Detail() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detail
}

// MeshPath returns path of complete mesh file, or empty string
// until the mesh exists. The intended conversion output is never exposed.
func (a *Artifact) MeshPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meshPath
}

// InterchangePath returns path of staged interchange file,
// or empty string for direct mesh uploads
func (a *Artifact) InterchangePath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interchangePath
}

// Open opens mesh file of ready artifact
func (a *Artifact) Open() (ports.File, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.state.IsDisposed():
		return nil, errors.ErrArtifactDisposed
	case !a.state.IsReady():
		return nil, ErrArtifactNotReady
	}
	return a.fs.Open(a.meshPath)
}

// Dispose removes all staged files of the artifact.
// An artifact disposed while still building is marked failed first.
// It is safe to call many times and from many goroutines.
func (a *Artifact) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.IsDisposed() {
		return
	}
	if a.state.CanTransition(vo.ArtifactFailed) {
		a.markFailed(a.disposedErr(a.scope))
	}
	lib.Assert(a.state.CanTransition(vo.ArtifactDisposed), fmt.Sprintf("%v -> %v", a.state, vo.ArtifactDisposed))
	a.state = vo.ArtifactDisposed
	if a.stopAfter != nil {
		a.stopAfter()
	}
	a.guard.Release()
	a.log.Debug("disposed")
	a.notify(a)
}

// bindTo disposes artifact once ctx is done
func (a *Artifact) bindTo(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scope = ctx
	a.stopAfter = context.AfterFunc(ctx, a.Dispose)
}

// build stages src and converts it if needed.
// On any error the artifact is disposed before return.
func (a *Artifact) build(ctx context.Context, store ports.TempStore, converter ports.Converter, src ports.ByteSource) error {
	next := vo.ArtifactDirectMesh
	if a.format.NeedsConversion() {
		next = vo.ArtifactPendingConversion
	}
	if err := a.advance(ctx, next, nil); err != nil {
		return a.fail(ctx, err)
	}

	staged, err := store.Stage(src, a.id, a.format.StagingExt())
	if err != nil {
		return a.fail(ctx, err)
	}
	if !a.guard.Track(staged) {
		return a.fail(ctx, a.disposedErr(ctx))
	}

	if !a.format.NeedsConversion() {
		if err := a.advance(ctx, vo.ArtifactReady, func() { a.meshPath = staged }); err != nil {
			return a.fail(ctx, err)
		}
		return nil
	}

	if err := a.advance(ctx, vo.ArtifactConverting, func() { a.interchangePath = staged }); err != nil {
		return a.fail(ctx, err)
	}
	// the output may be half written if disposed while converting
	if !a.guard.Track(store.Path(a.id, vo.ExtMesh)) {
		return a.fail(ctx, a.disposedErr(ctx))
	}
	mesh, err := converter.Convert(ctx, a.id, staged)
	if err != nil {
		return a.fail(ctx, err)
	}
	if !a.guard.Track(mesh) {
		return a.fail(ctx, a.disposedErr(ctx))
	}
	if err := a.advance(ctx, vo.ArtifactReady, func() { a.meshPath = mesh }); err != nil {
		return a.fail(ctx, err)
	}
	return nil
}

// advance moves artifact to state to, applying set under lock.
// It fails if the artifact got disposed meanwhile.
func (a *Artifact) advance(ctx context.Context, to vo.ArtifactState, set func()) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.IsDisposed() {
		return a.disposedErr(ctx)
	}
	lib.Assert(a.state.CanTransition(to), fmt.Sprintf("%v -> %v", a.state, to))
	a.state = to
	if set != nil {
		set()
	}
	a.log.Debug("state changed", slog.Any("state", to))
	a.notify(a)
	return nil
}

// fail marks artifact failed, disposes it and returns err
func (a *Artifact) fail(ctx context.Context, err error) error {
	a.mu.Lock()
	if a.state.CanTransition(vo.ArtifactFailed) {
		a.markFailed(err)
	}
	a.mu.Unlock()

	a.Dispose()
	return err
}

// markFailed must be called under mu
func (a *Artifact) markFailed(err error) {
	a.state = vo.ArtifactFailed
	a.detail = err.Error()
	a.log.Warn("failed", slog.Any("err", err))
	a.notify(a)
}

// disposedErr returns ErrArtifactDisposed wrapping the scope error, if any.
// The ctx may be nil for artifact disposed before binding.
func (a *Artifact) disposedErr(ctx context.Context) error {
	if ctx == nil {
		return errors.ErrArtifactDisposed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrArtifactDisposed, err)
	}
	return errors.ErrArtifactDisposed
}
