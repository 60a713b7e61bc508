package infra

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func lookPath(t *testing.T, name string) {
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%v not found", name)
	}
}

func TestExecEngine(t *testing.T) {
	lookPath(t, "cp")
	assert := require.New(t)
	fs := afero.NewOsFs()
	dir := t.TempDir()
	input, output := filepath.Join(dir, "part.stp"), filepath.Join(dir, "part.stl")
	assert.NoError(afero.WriteFile(fs, input, []byte("ISO-10303-21;\n"), 0o644))

	e := NewExecEngine(slog.Default(), fs, "cp", []string{"{input}", "{output}"}, time.Minute)
	doc, err := e.ImportInterchange(context.Background(), input)
	assert.NoError(err)
	assert.NoError(e.ExportMesh(context.Background(), doc, output))

	b, err := afero.ReadFile(fs, output)
	assert.NoError(err)
	assert.Equal("ISO-10303-21;\n", string(b))

	assert.ErrorIs(e.ExportMesh(context.Background(), "not a document", output), ErrWrongDocument)
}

func TestExecEngineImport(t *testing.T) {
	assert := require.New(t)
	fs := afero.NewMemMapFs()
	assert.NoError(afero.WriteFile(fs, "/tmp/empty.stp", nil, 0o644))
	assert.NoError(fs.MkdirAll("/tmp/dir.stp", 0o755))

	e := NewExecEngine(slog.Default(), fs, "converter", nil, 0)
	_, err := e.ImportInterchange(context.Background(), "/tmp/empty.stp")
	assert.ErrorIs(err, ErrNotInterchangeFile)
	_, err = e.ImportInterchange(context.Background(), "/tmp/dir.stp")
	assert.ErrorIs(err, ErrNotInterchangeFile)
	_, err = e.ImportInterchange(context.Background(), "/tmp/missing.stp")
	assert.Error(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ImportInterchange(ctx, "/tmp/empty.stp")
	assert.ErrorIs(err, context.Canceled)
}

func TestExecEngineFailure(t *testing.T) {
	lookPath(t, "sh")
	assert := require.New(t)
	fs := afero.NewOsFs()
	dir := t.TempDir()
	input := filepath.Join(dir, "part.stp")
	assert.NoError(afero.WriteFile(fs, input, []byte("ISO-10303-21;\n"), 0o644))

	e := NewExecEngine(slog.Default(), fs, "sh", []string{"-c", "echo bad geometry >&2; exit 3"}, time.Minute)
	doc, err := e.ImportInterchange(context.Background(), input)
	assert.NoError(err)
	err = e.ExportMesh(context.Background(), doc, filepath.Join(dir, "part.stl"))
	assert.ErrorContains(err, "exit code 3")
	assert.ErrorContains(err, "bad geometry")

	e = NewExecEngine(slog.Default(), fs, "sh", []string{"-c", "sleep 5"}, 100*time.Millisecond)
	err = e.ExportMesh(context.Background(), doc, filepath.Join(dir, "part.stl"))
	assert.ErrorIs(err, ErrEngineTimeout)
}
