package infra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
)

const (
	ErrNotInterchangeFile = lib.Error("not an interchange file")
	ErrWrongDocument      = lib.Error("document was not imported by this engine")
	ErrEngineTimeout      = lib.Error("engine timeout")
)

// ExecEngine is geometry engine running external converter command.
// The command args may refer {input} and {output} placeholders.
type ExecEngine struct {
	log     ports.Logger
	fs      ports.FS
	command string
	args    []string
	timeout time.Duration
}

type execDocument struct {
	path string
}

func NewExecEngine(log ports.Logger, f ports.FS, command string, args []string, timeout time.Duration) *ExecEngine {
	lib.Assert(command != "", "engine command must be set")
	log = log.With(slog.String("entity", "ExecEngine"), slog.String("command", command))
	return &ExecEngine{
		log:     log,
		fs:      f,
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// ImportInterchange only checks the file is readable non-empty regular file,
// the actual parsing happens in the external command
func (e *ExecEngine) ImportInterchange(ctx context.Context, path string) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fi, err := e.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() || fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNotInterchangeFile, path)
	}
	return &execDocument{path: path}, nil
}

func (e *ExecEngine) ExportMesh(ctx context.Context, doc ports.Document, path string) error {
	d, ok := doc.(*execDocument)
	if !ok {
		return ErrWrongDocument
	}

	values := map[string]string{"input": d.path, "output": path}
	args := make([]string, len(e.args))
	for x, arg := range e.args {
		args[x] = lib.Expand(arg, values)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log := e.log.With(slog.Any("args", args))
	log.Debug("executing")
	task := execute.ExecTask{
		Command: e.command,
		Args:    args,
	}
	res, err := task.Execute(ctx)
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, e.timeout)
	}
	if err != nil {
		log.Error("execution failed", slog.Any("err", err))
		return err
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		log.Warn("non-zero exit code", slog.Int("exitCode", res.ExitCode), slog.String("stderr", stderr))
		return fmt.Errorf("exit code %v: %v", res.ExitCode, stderr)
	}

	log.Debug("executed")
	return nil
}
