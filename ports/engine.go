package ports

import (
	"context"

	"github.com/cloudcopper/mesher/domain/models"
)

// Document is opaque handle returned by geometry engine import
type Document interface{}

// GeometryEngine is the external interchange-to-mesh collaborator.
// It is not assumed to be reentrant.
type GeometryEngine interface {
	ImportInterchange(ctx context.Context, path string) (Document, error)
	ExportMesh(ctx context.Context, doc Document, path string) error
}

type Converter interface {
	// Convert converts interchangePath into the mesh file of the artifact id
	// and returns its path. On error no output file is left behind.
	Convert(ctx context.Context, id models.ArtifactID, interchangePath string) (string, error)
}
