package domain

import (
	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/ports"
)

type ConversionRepository interface {
	Create(model *models.Conversion) error
	Update(model *models.Conversion) error
	FindAll(limit ports.Limit) ([]*models.Conversion, error)
	FindByID(artifactID models.ArtifactID) (*models.Conversion, error)
	IterateAll(func(*models.Conversion) (bool, error)) error
	Prune(keep int) (int64, error)
}
