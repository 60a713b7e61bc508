package mesher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudcopper/mesher/adapters"
	"github.com/cloudcopper/mesher/adapters/repository"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/infra"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	testTempFolder = "/var/tmp/mesher"
	testStepHeader = "ISO-10303-21;\n"
)

// testEngine pretends to convert STEP files by rewriting them as ascii STL
type testEngine struct {
	fs      afero.Fs
	calls   atomic.Int32
	running atomic.Int32
	maxSeen atomic.Int32
	started chan struct{}
	block   chan struct{}
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
		// leave partial output, as real engine would
		if err := afero.WriteFile(e.fs, path, []byte("solid partial\n"), 0o644); err != nil {
			return err
		}
		if e.started != nil {
			e.started <- struct{}{}
		}
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	body := doc.(*testDocument).body
	return afero.WriteFile(e.fs, path, []byte("solid converted\n"+body+"endsolid converted\n"), 0o644)
}

type testFakeAppOptions struct {
	cfg         ArtifactServiceConfig
	maxSize     int64
	concurrency int
	engine      *testEngine
}

type testFakeAppInternals struct {
	fs     afero.Fs
	bus    ports.EventBus
	store  *adapters.TempStoreAdapter
	engine *testEngine
	hr     *repository.ConversionRepository
	as     *ArtifactService
}

func testFakeApp(t *testing.T, opts testFakeAppOptions, callback func(*testFakeAppInternals)) {
	assert := require.New(t)
	noErr := func(err error) {
		assert.NoError(err)
		if err != nil {
			t.FailNow()
		}
	}

	log := slog.Default()
	fs := afero.NewMemMapFs()
	noErr(fs.MkdirAll(testTempFolder, os.ModePerm))
	// Create eventbus
	var bus ports.EventBus = infra.NewEventBus()
	defer bus.Shutdown()
	// Create database
	db, closeDb, err := infra.NewDatabase(log, infra.DriverSqlite, infra.SourceSqliteInMemory)
	noErr(err)
	defer closeDb()
	noErr(infra.MigrateDatabase(db))
	historyRepository, err := repository.NewConversionRepository(db, fs)
	noErr(err)
	// Create temp store
	store, err := adapters.NewTempStoreAdapter(log, fs, testTempFolder, opts.maxSize)
	noErr(err)
	// Create converter
	engine := opts.engine
	if engine == nil {
		engine = &testEngine{}
	}
	engine.fs = fs
	concurrency := max(opts.concurrency, 1)
	converter := adapters.NewConversionAdapter(log, fs, store, adapters.NewSerializedEngine(engine, concurrency))
	// Create artifact service
	artifactService := NewArtifactService(log, opts.cfg, bus, adapters.NewIdentityAllocator(adapters.IdentityUUID), store, converter, fs)
	defer artifactService.Close()

	app := &testFakeAppInternals{
		fs:     fs,
		bus:    bus,
		store:  store,
		engine: engine,
		hr:     historyRepository,
		as:     artifactService,
	}
	callback(app)
}

// listTemp returns sorted names of all entries in temp folder
func listTemp(t *testing.T, fs afero.Fs) []string {
	infos, err := afero.ReadDir(fs, testTempFolder)
	require.NoError(t, err)
	names := []string{}
	for _, i := range infos {
		names = append(names, filepath.Join(testTempFolder, i.Name()))
	}
	sort.Strings(names)
	return names
}

// testEventsUntilDisposed reads artifact events until the disposed one
func testEventsUntilDisposed(t *testing.T, ch chan ports.Event) []ports.Event {
	events := []ports.Event{}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			events = append(events, e)
			if e[1] == string(vo.ArtifactDisposed) {
				return events
			}
		case <-timeout:
			require.FailNow(t, "artifact is not disposed", "events %v", events)
		}
	}
}

// testStates returns state column of events
func testStates(events []ports.Event) []vo.ArtifactState {
	states := []vo.ArtifactState{}
	for _, e := range events {
		states = append(states, vo.ArtifactState(e[1]))
	}
	return states
}

func stepBody(s string) string {
	return testStepHeader + s
}
