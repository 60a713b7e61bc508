package mesher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudcopper/mesher/adapters"
	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
)

type ArtifactServiceConfig struct {
	// MaxAge disposes artifacts living longer, zero disables
	MaxAge time.Duration
	// SweepInterval is period of MaxAge check
	SweepInterval time.Duration
}

// ArtifactService creates artifacts and keeps track of live ones:
//   - publishes artifact-updated event on every state change
//   - disposes artifacts older than MaxAge
//   - disposes all live artifacts on Close
type ArtifactService struct {
	log       ports.Logger
	cfg       ArtifactServiceConfig
	bus       ports.EventBus
	ids       ports.IdentityAllocator
	store     ports.TempStore
	converter ports.Converter
	fs        ports.FS
	mu        sync.Mutex
	live      map[models.ArtifactID]*Artifact
	closed    bool
	done      chan struct{}
	closeWg   sync.WaitGroup
}

func NewArtifactService(log ports.Logger, cfg ArtifactServiceConfig, bus ports.EventBus, ids ports.IdentityAllocator, store ports.TempStore, converter ports.Converter, f ports.FS) *ArtifactService {
	log = log.With(slog.String("entity", "ArtifactService"))
	s := &ArtifactService{
		log:       log,
		cfg:       cfg,
		bus:       bus,
		ids:       ids,
		store:     store,
		converter: converter,
		fs:        f,
		live:      make(map[models.ArtifactID]*Artifact),
		done:      make(chan struct{}),
	}
	log.Info("created", slog.Duration("maxAge", cfg.MaxAge), slog.Duration("sweepInterval", cfg.SweepInterval))

	if cfg.MaxAge > 0 && cfg.SweepInterval > 0 {
		s.closeWg.Add(1)
		go func() {
			defer s.closeWg.Done()
			log.Info("process started")
			defer log.Info("process complete")
			s.background()
		}()
	}

	return s
}

// Close stops retention and disposes every live artifact.
// NewArtifact fails with ErrServiceClosed afterwards.
func (s *ArtifactService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.log.Info("closing")
	close(s.done)
	s.closeWg.Wait()
	for _, a := range s.snapshot() {
		a.Dispose()
	}
}

// NewArtifact classifies filename, stages src and converts it when needed.
// The returned artifact is ready and owned by the caller,
// who must Dispose it. It is also disposed once ctx is done.
// On error nothing is left in the temp folder.
func (s *ArtifactService) NewArtifact(ctx context.Context, filename string, src ports.ByteSource) (*Artifact, error) {
	name := lib.SecureFileName(filename)
	format, err := adapters.ClassifyName(name)
	if err != nil {
		s.log.Warn("rejected", slog.String("filename", filename), slog.Any("err", err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := s.ids.Allocate()
	a := &Artifact{
		id:        id,
		filename:  name,
		format:    format,
		createdAt: time.Now().UTC(),
		log:       s.log.With(slog.String("artifactID", id)),
		fs:        s.fs,
		guard:     NewLifecycleGuard(s.log.With(slog.String("artifactID", id)), s.fs),
		notify:    s.updated,
		state:     vo.ArtifactCreated,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.ErrServiceClosed
	}
	lib.Assert(s.live[id] == nil, "duplicated artifact id")
	s.live[id] = a
	s.mu.Unlock()

	a.log.Info("created", slog.String("filename", name), slog.Any("format", format))
	a.mu.Lock()
	s.updated(a)
	a.mu.Unlock()

	a.bindTo(ctx)
	if err := a.build(ctx, s.store, s.converter, src); err != nil {
		return nil, err
	}
	a.log.Info("ready", slog.String("meshPath", a.MeshPath()))
	return a, nil
}

// WithArtifact creates artifact and calls fn with it.
// The artifact is disposed when fn returns.
func (s *ArtifactService) WithArtifact(ctx context.Context, filename string, src ports.ByteSource, fn func(*Artifact) error) error {
	a, err := s.NewArtifact(ctx, filename, src)
	if err != nil {
		return err
	}
	defer a.Dispose()
	return fn(a)
}

// Process is WithArtifact for callers knowing only ports.ArtifactHandle
func (s *ArtifactService) Process(ctx context.Context, filename string, src ports.ByteSource, fn func(ports.ArtifactHandle) error) error {
	return s.WithArtifact(ctx, filename, src, func(a *Artifact) error {
		return fn(a)
	})
}

// Live returns number of not yet disposed artifacts
func (s *ArtifactService) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *ArtifactService) snapshot() []*Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Artifact, 0, len(s.live))
	for _, a := range s.live {
		list = append(list, a)
	}
	return list
}

// updated is called under a.mu, so events of one artifact keep order
func (s *ArtifactService) updated(a *Artifact) {
	if a.state.IsDisposed() {
		s.mu.Lock()
		delete(s.live, a.id)
		s.mu.Unlock()
	}
	s.bus.Pub(ports.TopicArtifactUpdated, ports.Event{a.id, string(a.state), a.filename, string(a.format), a.detail})
}

func (s *ArtifactService) background() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.disposeExpired(now)
		}
	}
}

// disposeExpired disposes artifacts created before now-MaxAge.
// It returns number of disposed artifacts.
func (s *ArtifactService) disposeExpired(now time.Time) int {
	deadline := now.Add(-s.cfg.MaxAge)
	count := 0
	for _, a := range s.snapshot() {
		if a.createdAt.After(deadline) {
			continue
		}
		a.log.Warn("expired", slog.Time("createdAt", a.createdAt))
		a.Dispose()
		count++
	}
	if count > 0 {
		s.log.Info("expired artifacts disposed", slog.Int("count", count))
	}
	return count
}
