package adapters

import (
	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/domain/vo"
	"github.com/cloudcopper/mesher/lib"
)

// formats maps lower case extension to handling variant
var formats = map[string]vo.Format{
	"stl":  vo.FormatDirectMesh,
	"stp":  vo.FormatConvertFromInterchange,
	"step": vo.FormatConvertFromInterchange,
}

// Classify returns handling variant of an untrusted upload filename.
// It does no I/O.
func Classify(filename string) (vo.Format, error) {
	return ClassifyName(lib.SecureFileName(filename))
}

// ClassifyName classifies already sanitized name
func ClassifyName(name string) (vo.Format, error) {
	if name == "" {
		return vo.FormatRejected, errors.ErrNoFileSelected
	}
	_, ext := lib.SplitExt(name)
	format, ok := formats[ext]
	if !ok {
		return vo.FormatRejected, errors.ErrInvalidFileType
	}
	return format, nil
}
