package mesher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cloudcopper/mesher/domain"
	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
)

const ErrInterrupted = lib.Error("interrupted by restart")

// HistoryService keeps conversion record of every artifact
// by listening artifact-updated events.
// Disposed records beyond keep newest ones are pruned.
// Records left undisposed by previous run are closed as interrupted on start.
type HistoryService struct {
	log       ports.Logger
	bus       ports.EventBus
	repo      domain.ConversionRepository
	keep      int
	chUpdated chan ports.Event
	closeWg   sync.WaitGroup
}

func NewHistoryService(log ports.Logger, bus ports.EventBus, repo domain.ConversionRepository, keep int) *HistoryService {
	log = log.With(slog.String("entity", "HistoryService"))
	s := &HistoryService{
		log:  log,
		bus:  bus,
		repo: repo,
		keep: max(keep, 1),
	}
	// Must be done before subscription,
	// so only records of previous run are seen
	s.closeInterrupted()
	s.chUpdated = bus.Sub(ports.TopicArtifactUpdated)

	s.closeWg.Add(1)
	go func() {
		defer s.closeWg.Done()
		log.Info("process started")
		defer log.Info("process complete")
		s.background()
	}()

	return s
}

// Close stops the service once all already published events are stored
func (s *HistoryService) Close() {
	s.log.Info("closing")
	s.bus.Unsub(s.chUpdated)
	s.closeWg.Wait()
}

func (s *HistoryService) background() {
	for event := range s.chUpdated {
		if len(event) != 5 {
			s.log.Error("malformed event", slog.Any("event", event))
			continue
		}
		id, state := event[0], vo.ArtifactState(event[1])
		filename, format, detail := event[2], vo.Format(event[3]), event[4]
		log := s.log.With(slog.String("artifactID", id), slog.Any("state", state))

		var err error
		if state == vo.ArtifactCreated {
			err = s.create(id, filename, format)
		} else {
			err = s.update(log, id, state, detail)
		}
		if err != nil {
			log.Error("unable to store conversion", slog.Any("err", err))
			continue
		}

		if state.IsDisposed() {
			s.prune()
		}
	}
}

func (s *HistoryService) closeInterrupted() {
	interrupted := []*models.Conversion{}
	err := s.repo.IterateAll(func(c *models.Conversion) (bool, error) {
		if !c.State.IsDisposed() {
			interrupted = append(interrupted, c)
		}
		return true, nil
	})
	if err != nil {
		s.log.Error("unable to iterate conversions", slog.Any("err", err))
		return
	}

	now := time.Now().UTC().Unix()
	for _, c := range interrupted {
		log := s.log.With(slog.String("artifactID", c.ArtifactID), slog.Any("state", c.State))
		if c.Detail == "" {
			c.Detail = ErrInterrupted.Error()
		}
		c.State = vo.ArtifactDisposed
		c.DisposedAt = max(now, c.CreatedAt)
		if err := s.repo.Update(c); err != nil {
			log.Error("unable to close interrupted conversion", slog.Any("err", err))
			continue
		}
		log.Warn("closed interrupted conversion")
	}
}

func (s *HistoryService) create(id models.ArtifactID, filename string, format vo.Format) error {
	return s.repo.Create(&models.Conversion{
		ArtifactID: id,
		Filename:   filename,
		Format:     format,
		State:      vo.ArtifactCreated,
		CreatedAt:  time.Now().UTC().Unix(),
	})
}

func (s *HistoryService) update(log ports.Logger, id models.ArtifactID, state vo.ArtifactState, detail string) error {
	c, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if c.State.IsDisposed() {
		log.Warn("ignore change of disposed conversion")
		return nil
	}

	c.State = state
	if detail != "" {
		c.Detail = detail
	}
	if state.IsDisposed() {
		c.DisposedAt = max(time.Now().UTC().Unix(), c.CreatedAt)
	}
	return s.repo.Update(c)
}

func (s *HistoryService) prune() {
	n, err := s.repo.Prune(s.keep)
	if err != nil {
		s.log.Error("unable to prune", slog.Any("err", err))
		return
	}
	if n > 0 {
		s.log.Debug("pruned", slog.Int64("count", n))
	}
}

// List returns newest conversions first, up to limit (all if limit is not positive)
func (s *HistoryService) List(limit int) ([]*models.Conversion, error) {
	return s.repo.FindAll(ports.Limit(limit))
}

// Get returns conversion by artifact id, or ErrNoSuchConversion
func (s *HistoryService) Get(id models.ArtifactID) (*models.Conversion, error) {
	c, err := s.repo.FindByID(id)
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, errors.ErrNoSuchConversion
	}
	return c, err
}
