package strata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Schema declares a set of related models, usually read from a YAML file:
//
//	models:
//	  - name: user
//	    fields:
//	      - {name: name, type: string, required: true}
//	      - {name: status, type: enum, states: [active, inactive]}
//	    has_many:
//	      - {model: post, foreign_key: user_id}
//	  - name: post
//	    fields:
//	      - {name: title, type: string}
//	      - {name: user_id, type: integer}
//	    belongs_to:
//	      - {model: user, foreign_key: user_id}
type Schema struct {
	Models []ModelDef `yaml:"models"`
}

// ModelDef declares one model. Table defaults to the plural of Name.
type ModelDef struct {
	Name      string        `yaml:"name"`
	Table     string        `yaml:"table,omitempty"`
	Fields    []FieldDef    `yaml:"fields"`
	HasMany   []RelationDef `yaml:"has_many,omitempty"`
	BelongsTo []RelationDef `yaml:"belongs_to,omitempty"`
}

// FieldDef declares one field by type name.
type FieldDef struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	States   []string `yaml:"states,omitempty"`
	Required bool     `yaml:"required,omitempty"`
	Unique   bool     `yaml:"unique,omitempty"`
	Default  any      `yaml:"default,omitempty"`
}

// RelationDef names the related model, by model or table name, and the
// foreign key column. Name overrides the accessor name.
type RelationDef struct {
	Model      string `yaml:"model"`
	ForeignKey string `yaml:"foreign_key"`
	Name       string `yaml:"name,omitempty"`
}

// Catalog is the set of models opened from one Schema.
type Catalog = sqlite.Catalog

// TableName returns the table the model is stored in.
func (d ModelDef) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return inflection.Plural(d.Name)
}

// ParseSchema decodes a YAML schema. Unknown keys are rejected.
func ParseSchema(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Schema
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &s, nil
}

// LoadSchema reads and decodes the schema file at path.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(bytes.NewReader(data))
}

// OpenSchema loads the schema file at path and opens its models.
func OpenSchema(path string, config types.Config) (*Catalog, error) {
	s, err := LoadSchema(path)
	if err != nil {
		return nil, err
	}
	return s.Open(config)
}

// fields converts the field declarations into typed fields.
func (d ModelDef) fields() ([]types.Field, error) {
	out := make([]types.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		typ, err := types.ParseType(fd.Type, fd.States...)
		if err != nil {
			return nil, fmt.Errorf("model %s field %s: %w", d.Name, fd.Name, err)
		}
		out = append(out, types.Field{
			Name:     fd.Name,
			Type:     typ,
			Required: fd.Required,
			Unique:   fd.Unique,
			Default:  fd.Default,
		})
	}
	return out, nil
}

// Open creates every model of the schema against config and wires the
// declared relations. On error every model opened so far is closed.
func (s *Schema) Open(config types.Config) (*Catalog, error) {
	cat := sqlite.NewCatalog()
	byName := make(map[string]*sqlite.Table, 2*len(s.Models))

	fail := func(err error) (*Catalog, error) {
		cat.Close()
		return nil, err
	}

	for _, d := range s.Models {
		fields, err := d.fields()
		if err != nil {
			return fail(err)
		}
		t, err := sqlite.NewTable(config, d.TableName(), fields...)
		if err != nil {
			return fail(fmt.Errorf("model %s: %w", d.Name, err))
		}
		if err := cat.Add(t); err != nil {
			t.Close()
			return fail(err)
		}
		byName[d.Name] = t
		byName[d.TableName()] = t
	}

	for _, d := range s.Models {
		t := byName[d.Name]
		for _, rd := range d.HasMany {
			target, ok := byName[rd.Model]
			if !ok {
				return fail(fmt.Errorf("%w: %s has many %q", types.ErrUnknownModel, d.Name, rd.Model))
			}
			if err := t.HasMany(target, types.Relation{Name: rd.Name, ForeignKey: rd.ForeignKey}); err != nil {
				return fail(err)
			}
		}
		for _, rd := range d.BelongsTo {
			target, ok := byName[rd.Model]
			if !ok {
				return fail(fmt.Errorf("%w: %s belongs to %q", types.ErrUnknownModel, d.Name, rd.Model))
			}
			if err := t.BelongsTo(target, types.Relation{Name: rd.Name, ForeignKey: rd.ForeignKey}); err != nil {
				return fail(err)
			}
		}
	}
	return cat, nil
}
