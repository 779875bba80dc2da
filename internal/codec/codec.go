// Package codec reads and writes observing block lists as YAML or JSON.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-odl/internal/block"
)

// Format is a serialisation format.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ErrEmptyDocument indicates input with no document in it.
var ErrEmptyDocument = errors.New("empty document")

// FormatFor picks the format from a file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// ParseFormat parses "yaml", "yml" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml", "":
		return YAML, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Encode writes l in format f.
func Encode(w io.Writer, l block.List, f Format) error {
	if f == JSON {
		return EncodeJSON(w, l)
	}
	return EncodeYAML(w, l)
}

// EncodeYAML writes l as a YAML document.
func EncodeYAML(w io.Writer, l block.List) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromList(l)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// EncodeJSON writes l as indented JSON.
func EncodeJSON(w io.Writer, l block.List) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromList(l)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Marshal returns l encoded in format f.
func Marshal(l block.List, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, l, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a document in format f.
func (d *Decoder) Decode(r io.Reader, f Format) (block.List, error) {
	if f == JSON {
		return d.DecodeJSON(r)
	}
	return d.DecodeYAML(r)
}

// DecodeYAML reads a YAML document.
func (d *Decoder) DecodeYAML(r io.Reader) (block.List, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return block.List{}, ErrEmptyDocument
		}
		return block.List{}, fmt.Errorf("decoding yaml: %w", err)
	}
	return d.List(doc)
}

// DecodeJSON reads a JSON document.
func (d *Decoder) DecodeJSON(r io.Reader) (block.List, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return block.List{}, ErrEmptyDocument
		}
		return block.List{}, fmt.Errorf("decoding json: %w", err)
	}
	return d.List(doc)
}

// Unmarshal decodes data in format f.
func (d *Decoder) Unmarshal(data []byte, f Format) (block.List, error) {
	return d.Decode(bytes.NewReader(data), f)
}

// ReadFile decodes the file at path, choosing the format by extension.
// A list without a name takes the file's base name.
func (d *Decoder) ReadFile(path string) (block.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return block.List{}, err
	}
	l, err := d.Unmarshal(data, FormatFor(path))
	if err != nil {
		return block.List{}, fmt.Errorf("%s: %w", path, err)
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return l, nil
}
