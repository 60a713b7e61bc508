package controllers

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/infra"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
)

const (
	uploadField     = "file"
	contentTypeMesh = "model/stl"
	// room for multipart headers around the file
	uploadOverhead = 64 * 1024
)

type UploadController struct {
	log       ports.Logger
	render    infra.Render
	processor ports.ArtifactProcessor
	maxSize   int64
}

// NewUploadController returns controller converting uploaded file.
// The maxSize limits upload body, zero means no limit.
func NewUploadController(log ports.Logger, render infra.Render, processor ports.ArtifactProcessor, maxSize int64) *UploadController {
	log = log.With(slog.String("entity", "UploadController"))
	return &UploadController{
		log:       log,
		render:    render,
		processor: processor,
		maxSize:   maxSize,
	}
}

// Upload accepts multipart form with single file,
// and responds with the mesh of it
func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	if c.maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxSize+uploadOverhead)
	}

	filename, src := "", lib.StringSource("")
	file, header, err := r.FormFile(uploadField)
	switch {
	case err == nil:
		defer file.Close()
		filename = header.Filename
		src = func() (io.Reader, error) { return file, nil }
	case errors.Is(err, http.ErrMissingFile):
		// empty filename gets rejected as no file selected
	default:
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.renderError(w, err)
			return
		}
		c.log.Warn("bad upload request", slog.Any("err", err))
		c.render.JSON(w, http.StatusBadRequest, errorResponse{Error: "BadRequest", Detail: err.Error()})
		return
	}

	written := false
	err = c.processor.Process(r.Context(), filename, src, func(a ports.ArtifactHandle) error {
		f, err := a.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		base, _ := lib.SplitExt(a.Filename())
		w.Header().Set("Content-Type", contentTypeMesh)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": base + "." + vo.ExtMesh}))
		w.Header().Set("X-Artifact-ID", a.ID())
		if fi, err := f.Stat(); err == nil {
			w.Header().Set("Content-Length", fmt.Sprint(fi.Size()))
		}
		w.WriteHeader(http.StatusOK)
		written = true
		_, err = io.Copy(w, f)
		return err
	})
	if err == nil {
		return
	}
	if written {
		c.log.Error("unable to send mesh", slog.Any("err", err))
		return
	}
	c.renderError(w, err)
}

func (c *UploadController) renderError(w http.ResponseWriter, err error) {
	status, code := helperErrorStatus(err)
	if status >= http.StatusInternalServerError {
		c.log.Error("upload failed", slog.String("code", code), slog.Any("err", err))
	} else {
		c.log.Warn("upload rejected", slog.String("code", code), slog.Any("err", err))
	}
	c.render.JSON(w, status, errorResponse{Error: code, Detail: err.Error()})
}
