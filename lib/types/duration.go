package types

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is time.Duration which also accepts
// day(d) and week(w) units in config files
type Duration time.Duration

const (
	day  = 24 * time.Hour
	week = 7 * day
)

func (d Duration) String() string {
	if d == 0 {
		return "-"
	}
	v := time.Duration(d)
	s := ""
	if v < 0 {
		s, v = "-", -v
	}
	if w := v / week; w != 0 {
		s += fmt.Sprintf("%vw", int64(w))
		v %= week
	}
	if n := v / day; n != 0 {
		s += fmt.Sprintf("%vd", int64(n))
		v %= day
	}
	if v != 0 || s == "" || s == "-" {
		s += v.String()
	}
	return s
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid duration")
	}
	if s == "0" || s == "-" {
		return 0, nil
	}

	sign := time.Duration(1)
	switch s[0] {
	case '-':
		sign, s = -1, s[1:]
	case '+':
		s = s[1:]
	}

	v := time.Duration(0)
	for s != "" {
		p := 0
		for p < len(s) && s[p] >= '0' && s[p] <= '9' {
			p++
		}
		if p == 0 || p >= len(s) {
			return 0, fmt.Errorf("invalid duration %q", s)
		}

		var unit time.Duration
		switch s[p] {
		case 'w':
			unit = week
		case 'd':
			unit = day
		default:
			// the rest is for time.ParseDuration
			rest, err := time.ParseDuration(s)
			if err != nil {
				return 0, err
			}
			v += rest
			s = ""
			continue
		}

		var n int64
		fmt.Sscan(s[:p], &n)
		v, s = v+time.Duration(n)*unit, s[p+1:]
	}

	return Duration(sign * v), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	i, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %v", err)
	}
	*d = i
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
