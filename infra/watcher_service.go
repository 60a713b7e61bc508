package infra

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

func TopicFileModified(id string) ports.Topic { return id + "-file-modified" }
func TopicFileRemoved(id string) ports.Topic  { return id + "-file-removed" }

// WatcherService watches flat directories announced on TopicInboxUpdated
// and publishes file events to topics named after its id.
// Sub-directories are not followed.
type WatcherService struct {
	id        string
	log       ports.Logger
	bus       ports.EventBus
	fs        ports.FS
	chUpdated chan ports.Event
	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	closeWg   sync.WaitGroup
}

func NewWatcherService(id string, log ports.Logger, bus ports.EventBus) (*WatcherService, error) {
	log = log.With(slog.String("entity", "WatcherService"), slog.String("id", id))
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &WatcherService{
		id:        id,
		log:       log,
		bus:       bus,
		fs:        afero.NewOsFs(),
		chUpdated: bus.Sub(ports.TopicInboxUpdated),
		watcher:   watcher,
	}
	log.Info("created")

	s.closeWg.Add(1)
	go func() {
		defer s.closeWg.Done()
		log.Info("process started")
		defer log.Info("process complete")
		s.background()
	}()

	return s, nil
}

func (s *WatcherService) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.log.Info("closing")
		s.bus.Unsub(s.chUpdated)
		s.watcher.Close()
		s.closeWg.Wait()
	})
}

func (s *WatcherService) addDir(path string) error {
	log := s.log.With(slog.String("path", path))
	if abspath, err := filepath.Abs(path); abspath != path || err != nil {
		log.Error("add dir failed", slog.Any("err", err), slog.String("abspath", abspath))
		return errors.ErrMustBeAbsPath
	}
	log.Info("add dir")
	err := s.watcher.Add(path)
	if err != nil {
		log.Error("add dir failed", slog.Any("err", err))
	}
	return err
}

func (s *WatcherService) background() {
	for {
		select {
		case event, ok := <-s.chUpdated:
			if !ok {
				return
			}
			for _, path := range event {
				_ = s.addDir(path)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Error("watcher error", slog.Any("err", err))
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.process(event)
		}
	}
}

func (s *WatcherService) process(event fsnotify.Event) {
	log, file := s.log.With(slog.String("file", event.Name)), event.Name
	log.Debug("watcher event", slog.String("op", event.Op.String()))

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if isDir, _ := afero.IsDir(s.fs, file); isDir {
			log.Debug("directory ignored")
			return
		}
		log.Debug("file modified", slog.Int64("size", lib.FileSize(s.fs, file)))
		s.bus.Pub(TopicFileModified(s.id), ports.Event{file})
	case event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove):
		log.Debug("file removed")
		s.bus.Pub(TopicFileRemoved(s.id), ports.Event{file})
	}
}
