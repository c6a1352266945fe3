package record

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/colvec/errors"
)

// Schema is the file form of a record type:
//
//	name: particle
//	fields:
//	  - name: x
//	    type: f64
//	  - name: alive
//	    type: option<u8>
//	  - name: tag
//	    size: 3
type Schema struct {
	Name   string        `yaml:"name"`
	Align  int           `yaml:"align,omitempty"`
	Fields []SchemaField `yaml:"fields"`
}

// SchemaField is one field of a Schema. Either Type or Size is set: Type is
// a WIT type expression, Size an opaque byte width with an optional Align.
type SchemaField struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Size  *int   `yaml:"size,omitempty"`
	Align int    `yaml:"align,omitempty"`
}

// ParseYAML decodes a schema and builds its descriptor.
func ParseYAML(data []byte) (*Descriptor, error) {
	var s Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.PhaseDescribe, errors.KindInvalidInput, err, "decode schema")
	}
	return s.Descriptor()
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDescribe, errors.KindNotFound, err, "read schema "+path)
	}
	return ParseYAML(data)
}

// Descriptor builds the descriptor the schema describes.
func (s *Schema) Descriptor() (*Descriptor, error) {
	c := newCalculator()
	fields := make([]Field, len(s.Fields))
	for i, sf := range s.Fields {
		switch {
		case sf.Type != "" && sf.Size != nil:
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(sf.Name).
				Detail("type and size are mutually exclusive").
				Build()
		case sf.Type != "":
			t, err := ParseType(sf.Type)
			if err != nil {
				return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
					Field(sf.Name).
					Cause(err).
					Detail("bad type %q", sf.Type).
					Build()
			}
			info := c.calculate(t)
			fields[i] = Field{Name: sf.Name, Size: info.Size, Align: info.Align, WitType: t}
		case sf.Size != nil:
			if *sf.Size < 0 {
				return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
					Field(sf.Name).
					Value(*sf.Size).
					Detail("negative size").
					Build()
			}
			fields[i] = Field{Name: sf.Name, Size: *sf.Size, Align: sf.Align}
		default:
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(sf.Name).
				Detail("field needs a type or a size").
				Build()
		}
	}
	return New(s.Name, s.Align, fields...)
}

// Schema returns the file form of d. Fields without a WIT type are written
// as opaque sizes.
func (d *Descriptor) Schema() Schema {
	s := Schema{Name: d.Name, Align: d.Align, Fields: make([]SchemaField, len(d.Fields))}
	for i, f := range d.Fields {
		sf := SchemaField{Name: f.Name}
		if f.WitType != nil {
			sf.Type = TypeString(f.WitType)
		} else {
			size := f.Size
			sf.Size = &size
			sf.Align = f.Align
		}
		s.Fields[i] = sf
	}
	return s
}
