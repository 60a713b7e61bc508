package controllers

import (
	"log/slog"
	"net/http"

	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/infra"
	"github.com/cloudcopper/mesher/ports"
	"github.com/go-chi/chi/v5"
)

const conversionsPerPage = 50

type historyReader interface {
	List(limit int) ([]*models.Conversion, error)
	Get(id models.ArtifactID) (*models.Conversion, error)
}

type ConversionController struct {
	log     ports.Logger
	render  infra.Render
	history historyReader
}

type conversionsPage struct {
	Page        int                  `json:"page"`
	Pages       int                  `json:"pages"`
	Total       int                  `json:"total"`
	Conversions []*models.Conversion `json:"conversions"`
}

func NewConversionController(log ports.Logger, render infra.Render, history historyReader) *ConversionController {
	log = log.With(slog.String("entity", "ConversionController"))
	return &ConversionController{
		log:     log,
		render:  render,
		history: history,
	}
}

func (c *ConversionController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.history.List(0)
	if err != nil { // 500
		c.renderServerError(w, err)
		return
	}

	data := &conversionsPage{Total: len(list)}
	data.Conversions, data.Page, data.Pages = helperPagination(r, list, conversionsPerPage)
	if data.Conversions == nil {
		data.Conversions = []*models.Conversion{}
	}
	c.render.JSON(w, http.StatusOK, data)
}

func (c *ConversionController) Get(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "artifactID")
	conversion, err := c.history.Get(artifactID)
	if errors.Is(err, errors.ErrNoSuchConversion) { // 404
		c.render.JSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Detail: artifactID})
		return
	}
	if err != nil { // 500
		c.renderServerError(w, err)
		return
	}
	c.render.JSON(w, http.StatusOK, conversion)
}

func (c *ConversionController) renderServerError(w http.ResponseWriter, err error) {
	c.log.Error("unable to read history", slog.Any("err", err))
	c.render.JSON(w, http.StatusInternalServerError, errorResponse{Error: "InternalError", Detail: err.Error()})
}
