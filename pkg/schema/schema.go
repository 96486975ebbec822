// Package schema declares the expected shape of backend JSON responses and
// validates untrusted payloads against it.
//
// A Schema is a tagged descriptor: a primitive kind, a sequence, a mapping or
// an object with named fields. Schemas are immutable once built. Modifiers such
// as Optional and Nullable return copies, so one value can be shared by every
// validation of a response family.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the JSON shape a Schema accepts.
type Kind int

const (
	KindNumber Kind = iota
	KindInteger
	KindString
	KindBool
	KindEnum
	KindArray
	KindMap
	KindObject
)

// String returns the kind name used in violation reports.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a named member of an object schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Schema describes one expected JSON shape.
type Schema struct {
	name     string
	kind     Kind
	optional bool
	nullable bool
	enum     []string
	elem     *Schema
	fields   []Field
}

func Number() *Schema  { return &Schema{kind: KindNumber} }
func Integer() *Schema { return &Schema{kind: KindInteger} }
func String() *Schema  { return &Schema{kind: KindString} }
func Bool() *Schema    { return &Schema{kind: KindBool} }

// Enum accepts exactly one of values. Matching is case-sensitive.
func Enum(values ...string) *Schema {
	return &Schema{kind: KindEnum, enum: append([]string(nil), values...)}
}

// ArrayOf accepts an ordered sequence whose elements all match elem.
func ArrayOf(elem *Schema) *Schema {
	return &Schema{kind: KindArray, elem: elem}
}

// MapOf accepts an object with arbitrary string keys whose values match elem.
func MapOf(elem *Schema) *Schema {
	return &Schema{kind: KindMap, elem: elem}
}

// Object declares a named composite schema. Fields are validated in the order
// given; fields not declared here are ignored.
func Object(name string, fields ...Field) *Schema {
	return &Schema{name: name, kind: KindObject, fields: append([]Field(nil), fields...)}
}

// F is shorthand for building a Field.
func F(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Optional returns a copy that also accepts an absent member or null.
func (s *Schema) Optional() *Schema {
	c := *s
	c.optional = true
	return &c
}

// Nullable returns a copy that accepts null. The member must still be present.
func (s *Schema) Nullable() *Schema {
	c := *s
	c.nullable = true
	return &c
}

// Named returns a copy carrying name, used in reports and metrics labels.
func (s *Schema) Named(name string) *Schema {
	c := *s
	c.name = name
	return &c
}

func (s *Schema) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.kind.String()
}

func (s *Schema) Kind() Kind       { return s.kind }
func (s *Schema) IsOptional() bool { return s.optional }
func (s *Schema) IsNullable() bool { return s.nullable || s.optional }

// Fields returns a copy of the declared object fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Elem returns the element schema of an array or map, nil otherwise.
func (s *Schema) Elem() *Schema { return s.elem }

// Expected renders the accepted shape for violation reports.
func (s *Schema) Expected() string {
	var b strings.Builder
	switch s.kind {
	case KindEnum:
		b.WriteString("one of [")
		b.WriteString(strings.Join(s.enum, " "))
		b.WriteString("]")
	case KindArray:
		b.WriteString("array of ")
		b.WriteString(s.elem.Expected())
	case KindMap:
		b.WriteString("map of ")
		b.WriteString(s.elem.Expected())
	case KindObject:
		if s.name != "" {
			b.WriteString(s.name)
		} else {
			b.WriteString("object")
		}
	default:
		b.WriteString(s.kind.String())
	}
	if s.IsNullable() {
		b.WriteString(" or null")
	}
	return b.String()
}
