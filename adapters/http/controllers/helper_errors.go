package controllers

import (
	"net/http"

	"github.com/cloudcopper/mesher/domain/errors"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// helperErrorStatus maps artifact creation error to http status
// and short error code
func helperErrorStatus(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	var conversionErr errors.ErrConversionFailed
	var stagingErr errors.ErrStagingFailed
	switch {
	case errors.Is(err, errors.ErrNoFileSelected):
		return http.StatusBadRequest, "NoFileSelected"
	case errors.Is(err, errors.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, "InvalidFileType"
	case errors.Is(err, errors.ErrUploadTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "UploadTooLarge"
	case errors.As(err, &conversionErr):
		return http.StatusUnprocessableEntity, "ConversionFailed"
	case errors.As(err, &stagingErr):
		return http.StatusInternalServerError, "StagingFailed"
	}
	return http.StatusInternalServerError, "InternalError"
}
