// Package instrument holds opaque instrument configurations and the TOML
// profiles that describe each instrument's frames and detector limits.
package instrument

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/litescript/ls-odl/internal/header"
)

// Config is an instrument setup (filters, gratings, slit mask...). Blocks
// only care that one is present and which instrument it targets; the
// parameters are passed through untouched.
type Config struct {
	Instrument string
	Name       string
	Params     map[string]any
}

// NewConfig returns a Config with an empty parameter set.
func NewConfig(instrument, name string) Config {
	return Config{Instrument: instrument, Name: name, Params: map[string]any{}}
}

// With returns a copy of c with key set to value.
func (c Config) With(key string, value any) Config {
	out := c
	out.Params = maps.Clone(c.Params)
	if out.Params == nil {
		out.Params = map[string]any{}
	}
	out.Params[key] = value
	return out
}

// Key identifies the configuration as "instrument/name".
func (c Config) Key() string {
	return strings.ToLower(c.Instrument) + "/" + c.Name
}

// IsZero reports whether c names no instrument.
func (c Config) IsZero() bool {
	return c.Instrument == ""
}

// Equal reports whether two configurations are interchangeable. Numeric
// parameters compare by value, so 3 and 3.0 are equal.
func (c Config) Equal(o Config) bool {
	if !strings.EqualFold(c.Instrument, o.Instrument) || c.Name != o.Name {
		return false
	}
	if len(c.Params) != len(o.Params) {
		return false
	}
	for k, v := range c.Params {
		ov, ok := o.Params[k]
		if !ok || !paramEqual(v, ov) {
			return false
		}
	}
	return true
}

func paramEqual(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch a := a.(type) {
	case map[string]any:
		b, ok := b.(map[string]any)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, v := range a {
			if bv, ok := b[k]; !ok || !paramEqual(v, bv) {
				return false
			}
		}
		return true
	case []any:
		b, ok := b.([]any)
		return ok && slices.EqualFunc(a, b, paramEqual)
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Header returns the IC* cards. Parameters are written in key order.
func (c Config) Header() header.Header {
	var h header.Header
	h.Add("ICNAME", c.Name, "Instrument Config Name")
	h.Add("ICINSTR", c.Instrument, "Instrument Config Instrument")
	for _, k := range slices.Sorted(maps.Keys(c.Params)) {
		h.Add("IC"+strings.ToUpper(k), c.Params[k], "")
	}
	return h
}

func (c Config) String() string {
	if c.Name == "" {
		return c.Instrument
	}
	return fmt.Sprintf("%s %s", c.Instrument, c.Name)
}
