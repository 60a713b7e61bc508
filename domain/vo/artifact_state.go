package vo

type ArtifactState string

const (
	ArtifactCreated           ArtifactState = "created"
	ArtifactDirectMesh        ArtifactState = "direct-mesh"
	ArtifactPendingConversion ArtifactState = "pending-conversion"
	ArtifactConverting        ArtifactState = "converting"
	ArtifactReady             ArtifactState = "ready"
	ArtifactFailed            ArtifactState = "failed"
	ArtifactDisposed          ArtifactState = "disposed"
)

// Only ready and failed artifacts are disposed.
// An artifact abandoned while building goes through failed.
var artifactTransitions = map[ArtifactState][]ArtifactState{
	ArtifactCreated:           {ArtifactDirectMesh, ArtifactPendingConversion, ArtifactFailed},
	ArtifactDirectMesh:        {ArtifactReady, ArtifactFailed},
	ArtifactPendingConversion: {ArtifactConverting, ArtifactFailed},
	ArtifactConverting:        {ArtifactReady, ArtifactFailed},
	ArtifactReady:             {ArtifactDisposed},
	ArtifactFailed:            {ArtifactDisposed},
}

func (s ArtifactState) CanTransition(to ArtifactState) bool {
	for _, next := range artifactTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ArtifactState) IsReady() bool {
	return s == ArtifactReady
}

func (s ArtifactState) IsFailed() bool {
	return s == ArtifactFailed
}

func (s ArtifactState) IsDisposed() bool {
	return s == ArtifactDisposed
}
