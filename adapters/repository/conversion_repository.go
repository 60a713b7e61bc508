package repository

import (
	"fmt"

	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/go-playground/validator/v10"
)

type ConversionRepository struct {
	db        ports.DB
	validator *validator.Validate
}

func NewConversionRepository(db ports.DB, f ports.FS) (*ConversionRepository, error) {
	r := &ConversionRepository{
		db:        db,
		validator: lib.NewValidator(f),
	}
	_, err := r.FindAll(1)
	return r, err
}

func (r *ConversionRepository) Create(model *models.Conversion) error {
	if err := model.Validate(r.validator); err != nil {
		return fmt.Errorf("invalid conversion object: %w", err)
	}
	return r.db.Create(model).Error
}

func (r *ConversionRepository) Update(model *models.Conversion) error {
	if err := model.Validate(r.validator); err != nil {
		return fmt.Errorf("invalid conversion object: %w", err)
	}
	return r.db.Save(model).Error
}

// FindAll returns newest first, up to limit records (all if limit is not positive)
func (r *ConversionRepository) FindAll(limit ports.Limit) ([]*models.Conversion, error) {
	var conversions []*models.Conversion
	db := r.db.Order("created_at DESC").Order("artifact_id")
	if limit > 0 {
		db = db.Limit(int(limit))
	}
	err := db.Find(&conversions).Error
	return conversions, err
}

func (r *ConversionRepository) FindByID(artifactID models.ArtifactID) (*models.Conversion, error) {
	conversion := &models.Conversion{}
	err := r.db.Where("artifact_id = ?", artifactID).First(conversion).Error
	return conversion, err
}

// IterateAll visits records oldest first
func (r *ConversionRepository) IterateAll(callback func(*models.Conversion) (bool, error)) error {
	return iterateAll(r.db.Order("created_at").Order("artifact_id"), callback)
}

// Prune removes disposed records older than newest keep records
func (r *ConversionRepository) Prune(keep int) (int64, error) {
	lib.Assert(keep > 0)
	sub := r.db.Model(&models.Conversion{}).Select("artifact_id").Order("created_at DESC").Order("artifact_id").Limit(keep)
	res := r.db.Where("disposed_at <> 0 AND artifact_id NOT IN (?)", sub).Delete(&models.Conversion{})
	return res.RowsAffected, res.Error
}
