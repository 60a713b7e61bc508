package models

import (
	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/go-playground/validator/v10"
)

type Conversions []*Conversion

// Conversion is the history record of one artifact
type Conversion struct {
	ArtifactID ArtifactID       `json:"artifactId" gorm:"primaryKey;not null" validate:"required,validid"`
	Filename   string           `json:"filename" gorm:"not null" validate:"required,securename"`
	Format     vo.Format        `json:"format" gorm:"not null" validate:"required,oneof=direct-mesh convert-from-interchange"`
	State      vo.ArtifactState `json:"state" gorm:"index;not null" validate:"required"`
	Detail     string           `json:"detail,omitempty"`                                                  // last error, if any
	CreatedAt  int64            `json:"createdAt" gorm:"index;column:created_at" validate:"required,gt=0"` // UTC Unix time
	DisposedAt int64            `json:"disposedAt,omitempty" gorm:"column:disposed_at"`                    // UTC Unix time or zero
}

func (model *Conversion) Validate(val *validator.Validate) error {
	if err := val.Struct(model); err != nil {
		return err
	}
	if model.State.IsDisposed() != (model.DisposedAt != 0) {
		return errors.ErrIncorrectDisposedAt
	}
	return nil
}
