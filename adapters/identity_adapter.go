package adapters

import (
	"crypto/rand"
	"time"

	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/ports"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	IdentityUUID = "uuid"
	IdentityULID = "ulid"
)

// UUIDAllocator returns random (v4) UUIDs
type UUIDAllocator struct{}

func (UUIDAllocator) Allocate() models.ArtifactID {
	return uuid.NewString()
}

// ULIDAllocator returns lexicographically sortable ULIDs.
// The entropy is crypto/rand, so no monotonic state is shared between calls.
type ULIDAllocator struct{}

func (ULIDAllocator) Allocate() models.ArtifactID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewIdentityAllocator returns allocator by name,
// or UUIDAllocator for unknown name
func NewIdentityAllocator(name string) ports.IdentityAllocator {
	if name == IdentityULID {
		return ULIDAllocator{}
	}
	return UUIDAllocator{}
}

// IsArtifactID returns true if s could be produced by one of allocators
func IsArtifactID(s string) bool {
	if _, err := uuid.Parse(s); err == nil && len(s) == 36 {
		return true
	}
	if _, err := ulid.ParseStrict(s); err == nil {
		return true
	}
	return false
}
