package types

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type Size int64

func (s Size) String() string {
	return humanize.Bytes(uint64(s))
}

// ParseSize accepts plain byte counts as well as human forms like "64MB" or "1.5 GiB"
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return Size(n), nil
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	i, err := ParseSize(str)
	if err != nil {
		return fmt.Errorf("invalid size: %v", err)
	}
	*s = i
	return nil
}

func (s Size) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
