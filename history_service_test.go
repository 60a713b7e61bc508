package mesher

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
	"github.com/stretchr/testify/require"
)

func TestHistoryService(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		hs := NewHistoryService(slog.Default(), app.bus, app.hr, 100)

		a, err := app.as.NewArtifact(context.Background(), "Box.STEP", lib.StringSource(stepBody("box\n")))
		assert.NoError(err)
		okID := a.ID()
		a.Dispose()

		_, err = app.as.NewArtifact(context.Background(), "bad.stp", lib.StringSource("bad"))
		assert.Error(err)

		b, err := app.as.NewArtifact(context.Background(), "live.stl", lib.StringSource("solid live\n"))
		assert.NoError(err)
		defer b.Dispose()

		// Close waits until all published events are stored
		hs.Close()

		list, err := hs.List(0)
		assert.NoError(err)
		assert.Len(list, 3)

		c, err := hs.Get(okID)
		assert.NoError(err)
		assert.Equal("Box.STEP", c.Filename)
		assert.Equal(vo.FormatConvertFromInterchange, c.Format)
		assert.Equal(vo.ArtifactDisposed, c.State)
		assert.Empty(c.Detail)
		assert.NotZero(c.DisposedAt)

		failed := 0
		for _, c := range list {
			if c.Filename == "bad.stp" {
				failed++
				assert.Equal(vo.ArtifactDisposed, c.State)
				assert.Contains(c.Detail, "conversion failed")
			}
		}
		assert.Equal(1, failed)

		c, err = hs.Get(b.ID())
		assert.NoError(err)
		assert.Equal(vo.ArtifactReady, c.State)
		assert.Zero(c.DisposedAt)

		_, err = hs.Get("no-such-id")
		assert.ErrorIs(err, errors.ErrNoSuchConversion)
	})
}

func TestHistoryServicePrune(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		hs := NewHistoryService(slog.Default(), app.bus, app.hr, 3)

		for x := 0; x < 10; x++ {
			a, err := app.as.NewArtifact(context.Background(), fmt.Sprintf("part%v.stl", x), lib.StringSource("solid part\n"))
			assert.NoError(err)
			a.Dispose()
		}
		hs.Close()

		list, err := hs.List(0)
		assert.NoError(err)
		// created_at has second resolution, so records of same second
		// are ordered by id and exact survivors are not known
		assert.Len(list, 3)
		for _, c := range list {
			assert.True(c.State.IsDisposed())
			assert.GreaterOrEqual(c.DisposedAt, c.CreatedAt)
			assert.WithinDuration(time.Now(), time.Unix(c.CreatedAt, 0), time.Minute)
		}
	})
}

func TestHistoryServiceClosesInterrupted(t *testing.T) {
	testFakeApp(t, testFakeAppOptions{}, func(app *testFakeAppInternals) {
		assert := require.New(t)
		now := time.Now().UTC().Unix()
		left := []*models.Conversion{
			{ArtifactID: "left-converting", Filename: "a.step", Format: vo.FormatConvertFromInterchange, State: vo.ArtifactConverting, CreatedAt: now},
			{ArtifactID: "left-failed", Filename: "b.step", Format: vo.FormatConvertFromInterchange, State: vo.ArtifactFailed, Detail: "conversion failed", CreatedAt: now},
			{ArtifactID: "left-disposed", Filename: "c.stl", Format: vo.FormatDirectMesh, State: vo.ArtifactDisposed, CreatedAt: now, DisposedAt: now},
		}
		for _, c := range left {
			assert.NoError(app.hr.Create(c))
		}

		hs := NewHistoryService(slog.Default(), app.bus, app.hr, 100)
		defer hs.Close()

		c, err := hs.Get("left-converting")
		assert.NoError(err)
		assert.Equal(vo.ArtifactDisposed, c.State)
		assert.Equal(ErrInterrupted.Error(), c.Detail)
		assert.NotZero(c.DisposedAt)

		c, err = hs.Get("left-failed")
		assert.NoError(err)
		assert.Equal(vo.ArtifactDisposed, c.State)
		assert.Equal("conversion failed", c.Detail)

		c, err = hs.Get("left-disposed")
		assert.NoError(err)
		assert.Equal(now, c.DisposedAt)
	})
}
