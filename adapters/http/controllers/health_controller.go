package controllers

import (
	"log/slog"
	"net/http"

	"github.com/cloudcopper/mesher/infra"
	"github.com/cloudcopper/mesher/ports"
)

type liveCounter interface {
	Live() int
}

type HealthController struct {
	log    ports.Logger
	render infra.Render
	live   liveCounter
}

func NewHealthController(log ports.Logger, render infra.Render, live liveCounter) *HealthController {
	log = log.With(slog.String("entity", "HealthController"))
	return &HealthController{
		log:    log,
		render: render,
		live:   live,
	}
}

func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	c.render.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"live":   c.live.Live(),
	})
}

func (c *HealthController) NotFound(w http.ResponseWriter, r *http.Request) {
	c.render.JSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Detail: r.URL.Path})
}
