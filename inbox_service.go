package mesher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

const failedSuffix = ".failed"

// InboxService converts files dropped to inbox folder.
// A file is picked up once it was not modified for settle time.
// The mesh goes to outbox as {base}.stl and the input is removed.
// The input which can not be converted is renamed to *.failed.
type InboxService struct {
	log        ports.Logger
	bus        ports.EventBus
	as         *ArtifactService
	fs         ports.FS
	inbox      string
	outbox     string
	settle     time.Duration
	chModified chan ports.Event
	chRemoved  chan ports.Event
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	timers     map[string]*time.Timer
	closing    bool
	closeWg    sync.WaitGroup
}

func NewInboxService(log ports.Logger, bus ports.EventBus, as *ArtifactService, f ports.FS, inbox, outbox string, settle time.Duration) (*InboxService, error) {
	log = log.With(slog.String("entity", "InboxService"), slog.String("inbox", inbox))
	for _, dir := range []string{inbox, outbox} {
		if exist, _ := afero.DirExists(f, dir); !exist {
			return nil, lib.ErrNoSuchDirectory{Path: dir}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &InboxService{
		log:        log,
		bus:        bus,
		as:         as,
		fs:         f,
		inbox:      filepath.Clean(inbox),
		outbox:     filepath.Clean(outbox),
		settle:     settle,
		chModified: bus.Sub(ports.TopicInboxFileModified),
		chRemoved:  bus.Sub(ports.TopicInboxFileRemoved),
		ctx:        ctx,
		cancel:     cancel,
		timers:     make(map[string]*time.Timer),
	}
	log.Info("created", slog.String("outbox", outbox), slog.Duration("settle", settle))

	s.closeWg.Add(1)
	go func() {
		defer s.closeWg.Done()
		log.Info("process started")
		defer log.Info("process complete")
		s.background()
	}()

	// files dropped while not running
	infos, err := afero.ReadDir(f, s.inbox)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, i := range infos {
		if !i.IsDir() {
			s.schedule(filepath.Join(s.inbox, i.Name()))
		}
	}
	bus.Pub(ports.TopicInboxUpdated, ports.Event{s.inbox})

	return s, nil
}

// Close stops pending timers, aborts running conversions and waits them
func (s *InboxService) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	for file, t := range s.timers {
		t.Stop()
		delete(s.timers, file)
	}
	s.mu.Unlock()

	s.log.Info("closing")
	s.cancel()
	s.bus.Unsub(s.chModified)
	s.bus.Unsub(s.chRemoved)
	s.closeWg.Wait()
}

func (s *InboxService) background() {
	chModified, chRemoved := s.chModified, s.chRemoved
	for chModified != nil || chRemoved != nil {
		select {
		case event, ok := <-chModified:
			if !ok {
				chModified = nil
				continue
			}
			s.schedule(event[0])
		case event, ok := <-chRemoved:
			if !ok {
				chRemoved = nil
				continue
			}
			s.unschedule(event[0])
		}
	}
}

func (s *InboxService) ignored(file string) bool {
	base := filepath.Base(file)
	return !lib.IsWithin(s.inbox, file) ||
		strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, failedSuffix) ||
		strings.HasSuffix(base, ".part")
}

// schedule (re)starts settle timer of the file
func (s *InboxService) schedule(file string) {
	if s.ignored(file) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	if t, ok := s.timers[file]; ok {
		t.Reset(s.settle)
		return
	}
	s.timers[file] = time.AfterFunc(s.settle, func() { s.fire(file) })
}

func (s *InboxService) unschedule(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[file]; ok {
		t.Stop()
		delete(s.timers, file)
	}
}

func (s *InboxService) fire(file string) {
	s.mu.Lock()
	delete(s.timers, file)
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closeWg.Add(1)
	s.mu.Unlock()

	defer s.closeWg.Done()
	s.process(file)
}

func (s *InboxService) process(file string) {
	log := s.log.With(slog.String("file", file))
	if !lib.Exists(s.fs, file) {
		log.Debug("gone before processing")
		return
	}

	var out string
	err := s.as.WithArtifact(s.ctx, filepath.Base(file), lib.FileSource(s.fs, file), func(a *Artifact) error {
		base, _ := lib.SplitExt(a.Filename())
		out = filepath.Join(s.outbox, base+"."+vo.ExtMesh)
		_, err := lib.CopyFile(s.fs, a.MeshPath(), s.fs, out)
		return err
	})
	if s.ctx.Err() != nil {
		log.Warn("aborted", slog.Any("err", err))
		return
	}
	if err != nil {
		log.Error("unable to convert", slog.Any("err", err))
		if err := s.fs.Rename(file, file+failedSuffix); err != nil {
			log.Error("unable to mark failed", slog.Any("err", err))
		}
		return
	}

	if err := s.fs.Remove(file); err != nil {
		log.Error("unable to remove", slog.Any("err", err))
	}
	log.Info("converted", slog.String("out", out))
}
