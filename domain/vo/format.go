package vo

// Format is the handling variant of an upload
type Format string

const (
	FormatRejected               Format = "rejected"
	FormatDirectMesh             Format = "direct-mesh"
	FormatConvertFromInterchange Format = "convert-from-interchange"
)

// Extensions of staged files
const (
	ExtMesh        = "stl"
	ExtInterchange = "stp"
)

// StagingExt returns extension the upload of format f is staged with
func (f Format) StagingExt() string {
	switch f {
	case FormatDirectMesh:
		return ExtMesh
	case FormatConvertFromInterchange:
		return ExtInterchange
	}
	return ""
}

func (f Format) NeedsConversion() bool {
	return f == FormatConvertFromInterchange
}
