package mesher

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/lib/random"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestArtifactDirectMesh(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		content := random.Solid("part")

		a, err := app.as.NewArtifact(context.Background(), "part.STL", lib.StringSource(content))
		assert.NoError(err)
		assert.Equal(vo.ArtifactReady, a.State())
		assert.Equal(vo.FormatDirectMesh, a.Format())
		assert.Equal("part.STL", a.Filename())
		assert.Equal(filepath.Join(testTempFolder, a.ID()+".stl"), a.MeshPath())
		assert.Empty(a.InterchangePath())
		assert.Equal([]string{a.MeshPath()}, listTemp(t, app.fs))
		assert.Equal(int32(0), app.engine.calls.Load())

		b, err := afero.ReadFile(app.fs, a.MeshPath())
		assert.NoError(err)
		assert.Equal(content, string(b))

		f, err := a.Open()
		assert.NoError(err)
		b, err = io.ReadAll(f)
		assert.NoError(err)
		assert.NoError(f.Close())
		assert.Equal(content, string(b))

		a.Dispose()
		assert.Equal(vo.ArtifactDisposed, a.State())
		assert.True(lib.NoSuchFile(app.fs, a.MeshPath()))
		assert.Empty(listTemp(t, app.fs))
		assert.NotPanics(a.Dispose)

		_, err = a.Open()
		assert.ErrorIs(err, errors.ErrArtifactDisposed)
	})
}

func TestArtifactNoFileSelected(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		for _, name := range []string{"", "/", "../..", "..\\..\\", "...", "  "} {
			called := false
			src := func() (io.Reader, error) {
				called = true
				return nil, nil
			}
			a, err := app.as.NewArtifact(context.Background(), name, src)
			assert.ErrorIs(err, errors.ErrNoFileSelected, name)
			assert.Nil(a)
			assert.False(called)
		}
		assert.Empty(listTemp(t, app.fs))
		assert.Equal(0, app.as.Live())
	})
}

func TestArtifactInvalidFileType(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		for _, name := range []string{"model.obj", "model", "model.stl.exe", "model.stp.zip"} {
			a, err := app.as.NewArtifact(context.Background(), name, lib.StringSource("solid x\n"))
			assert.ErrorIs(err, errors.ErrInvalidFileType, name)
			assert.Nil(a)
		}
		assert.Empty(listTemp(t, app.fs))
	})
}

func TestArtifactConversion(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)

		a, err := app.as.NewArtifact(context.Background(), "../../etc/box.step", lib.StringSource(stepBody("box\n")))
		assert.NoError(err)
		assert.Equal(vo.ArtifactReady, a.State())
		assert.Equal(vo.FormatConvertFromInterchange, a.Format())
		assert.Equal("box.step", a.Filename())
		assert.Equal(filepath.Join(testTempFolder, a.ID()+".stp"), a.InterchangePath())
		assert.Equal(filepath.Join(testTempFolder, a.ID()+".stl"), a.MeshPath())
		assert.ElementsMatch([]string{a.MeshPath(), a.InterchangePath()}, listTemp(t, app.fs))
		assert.Equal(int32(1), app.engine.calls.Load())

		b, err := afero.ReadFile(app.fs, a.MeshPath())
		assert.NoError(err)
		assert.Equal("solid converted\nbox\nendsolid converted\n", string(b))

		a.Dispose()
		assert.True(lib.NoSuchFile(app.fs, a.MeshPath()))
		assert.True(lib.NoSuchFile(app.fs, a.InterchangePath()))
		assert.Empty(listTemp(t, app.fs))
	})
}

func TestArtifactConversionFailed(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)

		a, err := app.as.NewArtifact(context.Background(), "box.step", lib.StringSource("garbage"))
		assert.Nil(a)
		var convErr errors.ErrConversionFailed
		assert.ErrorAs(err, &convErr)
		assert.Contains(convErr.Error(), "not a STEP file")
		assert.Empty(listTemp(t, app.fs))
		assert.Equal(0, app.as.Live())
	})
}

func TestArtifactStagingFailed(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{maxSize: 16}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		var stageErr errors.ErrStagingFailed

		_, err := app.as.NewArtifact(context.Background(), "part.stl", func() (io.Reader, error) {
			return nil, io.ErrUnexpectedEOF
		})
		assert.ErrorAs(err, &stageErr)
		assert.ErrorIs(err, io.ErrUnexpectedEOF)

		_, err = app.as.NewArtifact(context.Background(), "part.stl", lib.StringSource("solid too large to fit\n"))
		assert.ErrorAs(err, &stageErr)
		assert.ErrorIs(err, errors.ErrUploadTooLarge)

		_, err = app.as.NewArtifact(context.Background(), "part.stp", lib.StringSource(stepBody("too large to fit\n")))
		assert.ErrorIs(err, errors.ErrUploadTooLarge)

		assert.Empty(listTemp(t, app.fs))
		assert.Equal(int32(0), app.engine.calls.Load())
	})
}

func TestArtifactRoundTrip(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		for x := 0; x < 20; x++ {
			data := random.ByteSlice(64 * 1024)
			name := random.FileName(3, "stl")
			err := app.as.WithArtifact(context.Background(), name, lib.BytesSource(data), func(a *Artifact) error {
				b, err := afero.ReadFile(app.fs, a.MeshPath())
				assert.NoError(err)
				assert.Equal(data, b, name)
				return nil
			})
			assert.NoError(err)
		}
		assert.Empty(listTemp(t, app.fs))
	})
}

func TestArtifactCancelled(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)

		ctx, cancel := context.WithCancel(context.Background())
		a, err := app.as.NewArtifact(ctx, "box.stp", lib.StringSource(stepBody("box\n")))
		assert.NoError(err)
		assert.Len(listTemp(t, app.fs), 2)

		// abandoned artifact is disposed by its scope
		cancel()
		assert.Eventually(func() bool {
			return a.State().IsDisposed()
		}, 5*time.Second, 10*time.Millisecond)
		assert.Empty(listTemp(t, app.fs))

		_, err = app.as.NewArtifact(ctx, "box.stp", lib.StringSource(stepBody("box\n")))
		assert.ErrorIs(err, context.Canceled)
		assert.Empty(listTemp(t, app.fs))
	})
}

func TestArtifactCancelledWhileConverting(t *testing.T) {
	engine := &testEngine{
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	testFakeApp(t, testFakeAppOptions{engine: engine}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		ch := app.bus.Sub(ports.TopicArtifactUpdated)
		defer app.bus.Unsub(ch)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-engine.started
			cancel()
		}()

		a, err := app.as.NewArtifact(ctx, "box.stp", lib.StringSource(stepBody("box\n")))
		assert.Nil(a)
		assert.ErrorIs(err, context.Canceled)
		assert.Empty(listTemp(t, app.fs))
		assert.Equal(0, app.as.Live())

		events := testEventsUntilDisposed(t, ch)
		assert.Equal([]vo.ArtifactState{
			vo.ArtifactCreated,
			vo.ArtifactPendingConversion,
			vo.ArtifactConverting,
			vo.ArtifactFailed,
			vo.ArtifactDisposed,
		}, testStates(events))
		failed := events[3]
		assert.Contains(failed[4], errors.ErrArtifactDisposed.Error())
		assert.Contains(failed[4], context.Canceled.Error())
		assert.Equal(failed[4], events[4][4])
	})
}

func TestArtifactDisposedWhileConverting(t *testing.T) {
	engine := &testEngine{
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	testFakeApp(t, testFakeAppOptions{engine: engine}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		ch := app.bus.Sub(ports.TopicArtifactUpdated)
		defer app.bus.Unsub(ch)

		go func() {
			<-engine.started
			// the artifact is not returned yet, so reach it by service
			for _, a := range app.as.snapshot() {
				assert.Equal(vo.ArtifactConverting, a.State())
				assert.Empty(a.MeshPath(), "intended output is not exposed")
				a.Dispose()
			}
			close(engine.block)
		}()

		a, err := app.as.NewArtifact(context.Background(), "box.stp", lib.StringSource(stepBody("box\n")))
		assert.Nil(a)
		assert.ErrorIs(err, errors.ErrArtifactDisposed)
		assert.Empty(listTemp(t, app.fs))

		events := testEventsUntilDisposed(t, ch)
		assert.Equal([]vo.ArtifactState{
			vo.ArtifactCreated,
			vo.ArtifactPendingConversion,
			vo.ArtifactConverting,
			vo.ArtifactFailed,
			vo.ArtifactDisposed,
		}, testStates(events))
		assert.Equal(errors.ErrArtifactDisposed.Error(), events[3][4])
	})
}
