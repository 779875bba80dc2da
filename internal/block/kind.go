package block

import (
	"fmt"
	"strings"
)

// Kind is the observation type of a block. It decides which components are
// mandatory.
type Kind string

const (
	Science      Kind = "Science"
	StandardStar Kind = "StandardStar"
	Telluric     Kind = "Telluric"
	Calibration  Kind = "Calibration"
	Focus        Kind = "Focus"
)

// Requirements lists the optional components a kind makes mandatory.
type Requirements struct {
	Target    bool
	Alignment bool
}

var kindRules = map[Kind]Requirements{
	Science:      {Target: true, Alignment: true},
	StandardStar: {Target: true, Alignment: true},
	Telluric:     {Target: true, Alignment: true},
	Calibration:  {},
	Focus:        {},
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Science, StandardStar, Telluric, Calibration, Focus}
}

// Requires returns the component requirements of k.
func (k Kind) Requires() (Requirements, bool) {
	r, ok := kindRules[k]
	return r, ok
}

// ParseKind matches a kind name case-insensitively. "standard_star" and
// "standard-star" are accepted for StandardStar.
func ParseKind(s string) (Kind, error) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for _, k := range Kinds() {
		if strings.ToLower(string(k)) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown observing block kind %q", s)
}
