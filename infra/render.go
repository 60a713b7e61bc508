package infra

import (
	"os"

	"github.com/unrolled/render"
)

type Render = *render.Render

// NewRender returns JSON renderer for api controllers
func NewRender() Render {
	dev := os.Getenv("GO_ENV") == "development"
	return render.New(render.Options{
		IndentJSON:    dev,
		IsDevelopment: dev,
	})
}
