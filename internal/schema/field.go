// Package schema holds the declarative section table of the accreditation questionnaire
// and the pure validators that run against it.
package schema

import (
	"fmt"
	"regexp"

	"accreditation-questionnaire-service/internal/domain"
)

// Kind is the value type a field collects.
type Kind string

const (
	KindText        Kind = "text"
	KindEmail       Kind = "email"
	KindURL         Kind = "url"
	KindInteger     Kind = "integer"
	KindNumber      Kind = "number"
	KindBoolean     Kind = "boolean"
	KindEnum        Kind = "enum"
	KindAttestation Kind = "attestation" // boolean that must be confirmed
)

// Condition is one clause of a gate: the sibling field must equal Equals.
type Condition struct {
	Field  string `json:"field"`
	Equals any    `json:"equals"`
}

// Field describes one question and its constraint.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required,omitempty"`

	// Numeric bounds, inclusive. Nil means unbounded.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	// NotAfterCurrentYear bounds an integer year by the validation date.
	NotAfterCurrentYear bool `json:"notAfterCurrentYear,omitempty"`

	MinLength int `json:"minLength,omitempty"`
	MaxLength int `json:"maxLength,omitempty"`

	Pattern        *regexp.Regexp `json:"-"`
	PatternMessage string         `json:"patternMessage,omitempty"`

	Options []string `json:"options,omitempty"`

	// When gates the field: all conditions must hold for the field to be
	// visible and validated. Empty means always active.
	When []Condition `json:"when,omitempty"`
}

// PatternText exposes the source of Pattern for renderers.
func (f Field) PatternText() string {
	if f.Pattern == nil {
		return ""
	}
	return f.Pattern.String()
}

// Gated reports whether the field depends on sibling values.
func (f Field) Gated() bool {
	return len(f.When) > 0
}

// Default is the value a form binds when nothing has been committed yet.
func (f Field) Default() any {
	switch f.Kind {
	case KindBoolean, KindAttestation:
		return false
	case KindInteger, KindNumber:
		return nil
	default:
		return ""
	}
}

// Section is one page of the questionnaire and the fields it owns.
type Section struct {
	ID     domain.SectionID `json:"id"`
	Key    string           `json:"key"`
	Title  string           `json:"title"`
	Fields []Field          `json:"fields"`

	index map[string]int
}

func newSection(id domain.SectionID, key, title string, fields ...Field) *Section {
	s := &Section{ID: id, Key: key, Title: title, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Field looks up a field owned by the section.
func (s *Section) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Owns reports whether name is one of the section's fields.
func (s *Section) Owns(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the section's field names in declaration order.
func (s *Section) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Dependents returns the fields whose gate mentions gate.
func (s *Section) Dependents(gate string) []Field {
	var out []Field
	for _, f := range s.Fields {
		for _, c := range f.When {
			if c.Field == gate {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Active evaluates f's gate against the current section values.
func (s *Section) Active(f Field, values domain.Slice) bool {
	for _, c := range f.When {
		gate, ok := s.Field(c.Field)
		if !ok {
			return false
		}
		v, _, msg := normalize(gate, values[c.Field])
		if msg != "" {
			return false
		}
		if v == nil {
			v = gate.Default()
		}
		if v != c.Equals {
			return false
		}
	}
	return true
}

// Set is the immutable collection of all section schemas.
type Set struct {
	sections [domain.SectionCount]*Section
	owner    map[string]domain.SectionID
}

// NewSet indexes sections by id and field ownership. Sections must cover every id exactly once.
func NewSet(sections ...*Section) *Set {
	s := &Set{owner: make(map[string]domain.SectionID)}
	for _, sec := range sections {
		if !sec.ID.Valid() || s.sections[sec.ID] != nil {
			panic("schema: invalid or duplicate section " + sec.Key)
		}
		s.sections[sec.ID] = sec
		for _, f := range sec.Fields {
			if _, dup := s.owner[f.Name]; dup {
				panic("schema: field owned by two sections: " + f.Name)
			}
			s.owner[f.Name] = sec.ID
		}
	}
	for i, sec := range s.sections {
		if sec == nil {
			panic(fmt.Sprintf("schema: missing section %d", i))
		}
	}
	return s
}

// Section returns the schema for id.
func (s *Set) Section(id domain.SectionID) (*Section, error) {
	if !id.Valid() {
		return nil, domain.ErrUnknownSection
	}
	return s.sections[id], nil
}

// Sections returns every section in order.
func (s *Set) Sections() []*Section {
	out := make([]*Section, len(s.sections))
	copy(out, s.sections[:])
	return out
}

// SectionOf returns the section that owns field.
func (s *Set) SectionOf(field string) (domain.SectionID, bool) {
	id, ok := s.owner[field]
	return id, ok
}

// Project extracts one section's fields from a full document, leaving absent fields absent.
func (s *Section) Project(doc domain.Document) domain.Slice {
	out := make(domain.Slice, len(s.Fields))
	for _, f := range s.Fields {
		if v, ok := doc[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
