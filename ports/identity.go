package ports

import "github.com/cloudcopper/mesher/domain/models"

// IdentityAllocator returns unique artifact id.
// Implementations must be safe for unsynchronized concurrent calls.
type IdentityAllocator interface {
	Allocate() models.ArtifactID
}
