package errors

import (
	"errors"
	"fmt"

	"github.com/cloudcopper/mesher/lib"
)

const ErrNoFileSelected = lib.Error("no file selected")
const ErrInvalidFileType = lib.Error("invalid file type")
const ErrUploadTooLarge = lib.Error("upload too large")
const ErrEmptyMesh = lib.Error("empty mesh")
const ErrArtifactDisposed = lib.Error("artifact disposed")
const ErrMustBeAbsPath = lib.Error("must be absolute path")
const ErrIncorrectDisposedAt = lib.Error("incorrect disposed at")
const ErrServiceClosed = lib.Error("service closed")
const ErrNoSuchConversion = lib.Error("no such conversion")

// ErrStagingFailed is returned when upload bytes could not be written to Path
type ErrStagingFailed struct {
	Path string
	Err  error
}

func (e ErrStagingFailed) Error() string {
	return fmt.Sprintf("staging failed %v: %v", e.Path, e.Err)
}

func (e ErrStagingFailed) Unwrap() error { return e.Err }

// ErrConversionFailed wraps the geometry engine failure
type ErrConversionFailed struct {
	Path string
	Err  error
}

func (e ErrConversionFailed) Error() string {
	return fmt.Sprintf("conversion failed %v: %v", e.Path, e.Err)
}

func (e ErrConversionFailed) Unwrap() error { return e.Err }

// ErrCleanupFailed is never returned to artifact owner, only logged
type ErrCleanupFailed struct {
	Path string
	Err  error
}

func (e ErrCleanupFailed) Error() string {
	return fmt.Sprintf("cleanup failed %v: %v", e.Path, e.Err)
}

func (e ErrCleanupFailed) Unwrap() error { return e.Err }

var Is = errors.Is
var As = errors.As
