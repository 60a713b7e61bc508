package ports

import (
	"context"

	"github.com/cloudcopper/mesher/domain/models"
)

// ArtifactHandle is view of ready artifact given to its user
type ArtifactHandle interface {
	ID() models.ArtifactID
	Filename() string
	MeshPath() string
	Open() (File, error)
}

type ArtifactProcessor interface {
	// Process builds artifact and calls fn with it.
	// The artifact is disposed when fn returns.
	Process(ctx context.Context, filename string, src ByteSource, fn func(ArtifactHandle) error) error
}
