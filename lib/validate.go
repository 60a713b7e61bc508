package lib

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// NewValidator returns validator knowing the custom string tags:
//
//	abspath    - clean absolute path, see IsAbs
//	validid    - identifier safe for file names, see IsValidID
//	dir        - existing directory on fs
//	securename - name SecureFileName keeps unchanged
func NewValidator(fs afero.Fs) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	tags := map[string]func(string) bool{
		"abspath": IsAbs,
		"validid": IsValidID,
		"dir": func(s string) bool {
			exist, _ := afero.DirExists(fs, s)
			return exist
		},
		"securename": func(s string) bool {
			return s != "" && s == SecureFileName(s)
		},
	}
	for tag, fn := range tags {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
		Assert(err)
	}
	return v
}
