package models

type ArtifactID = string

const EmptyArtifactID = ArtifactID("")
