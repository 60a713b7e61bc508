package ports

import (
	"io"

	"github.com/cloudcopper/mesher/domain/models"
)

// ByteSource produces the full upload content.
// If returned reader is io.Closer, it is closed by the consumer.
type ByteSource = func() (io.Reader, error)

type TempStore interface {
	// Path returns location of {id}.{ext} inside the temp folder
	Path(id models.ArtifactID, ext string) string
	// Stage writes the whole src to Path(id, ext).
	// On error no file is left behind.
	Stage(src ByteSource, id models.ArtifactID, ext string) (string, error)
}
