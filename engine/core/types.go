// Package core implements the language-neutral Type & Value Model (§4.A),
// the error taxonomy (§7), canonical JSON hashing (used by the Digest
// Engine), ID generation, and the compiler's temp-directory lifecycle (§5).
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags a Type's variant. Types are a closed sum: adding a variant means
// touching every switch below, which is the accepted tradeoff for a small,
// stable surface (see DESIGN NOTES in SPEC_FULL.md).
type Kind string

const (
	KindBoolean   Kind = "boolean"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindString    Kind = "string"
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindArray     Kind = "array"
	KindOptional  Kind = "optional"
	KindMulti     Kind = "multi"
	KindAny       Kind = "any"
	KindSchema    Kind = "schema"
	KindEnum      Kind = "enum"
)

// Type is the sum described in spec §3: Boolean | Int | Float | String |
// File | Directory | Array(T, nonEmpty?) | Optional(T) | Multi({T...}) |
// Any | Schema(name, fields) | Enum(symbols). Hash is an anonymous Schema
// (Name == "").
type Type struct {
	Kind Kind

	// Array / Optional
	Elem     *Type
	NonEmpty bool // only meaningful when Kind == KindArray

	// Multi
	Members []Type

	// Schema (Hash is Schema with Name == "")
	Name   string
	Fields []SchemaField

	// Enum
	Symbols []string
}

// SchemaField is one ordered field of a Schema type.
type SchemaField struct {
	Name string
	Type Type
}

func Boolean() Type   { return Type{Kind: KindBoolean} }
func Int() Type       { return Type{Kind: KindInt} }
func Float() Type     { return Type{Kind: KindFloat} }
func String() Type    { return Type{Kind: KindString} }
func File() Type      { return Type{Kind: KindFile} }
func Directory() Type { return Type{Kind: KindDirectory} }
func Any() Type       { return Type{Kind: KindAny} }

func Array(elem Type, nonEmpty bool) Type {
	return Normalize(Type{Kind: KindArray, Elem: cloneType(elem), NonEmpty: nonEmpty})
}

func Optional(elem Type) Type {
	return Normalize(Type{Kind: KindOptional, Elem: cloneType(elem)})
}

func Multi(members ...Type) Type {
	return Normalize(Type{Kind: KindMulti, Members: members})
}

func Schema(name string, fields ...SchemaField) Type {
	return Type{Kind: KindSchema, Name: name, Fields: fields}
}

// Hash is an anonymous Schema, per spec §3.
func Hash(fields ...SchemaField) Type {
	return Schema("", fields...)
}

func Enum(symbols ...string) Type {
	return Type{Kind: KindEnum, Symbols: append([]string(nil), symbols...)}
}

func cloneType(t Type) *Type {
	c := t
	return &c
}

// IsOptional reports whether t is Optional(_).
func (t Type) IsOptional() bool { return t.Kind == KindOptional }

// IsHash reports whether t is an anonymous Schema.
func (t Type) IsHash() bool { return t.Kind == KindSchema && t.Name == "" }

// Native reports whether t maps to a single platform parameter without the
// composite two-field encoding described in §6. Native types are: Boolean,
// Int, Float, String, File, Directory, Array of any native, and Optional of
// any native. Schema/Hash/Multi/Enum (and arrays thereof) are composite.
func (t Type) Native() bool {
	switch t.Kind {
	case KindBoolean, KindInt, KindFloat, KindString, KindFile, KindDirectory:
		return true
	case KindArray:
		return t.Elem != nil && t.Elem.Native()
	case KindOptional:
		return t.Elem != nil && t.Elem.Native()
	default:
		return false
	}
}

// Normalize enforces the Type invariants from spec §3:
//   - nested Optional(Optional(_)) collapses to a single Optional.
//   - Multi members are de-duplicated and never themselves Optional (an
//     Optional member is unwrapped and the whole Multi becomes Optional).
//   - Array(_, nonEmpty=true) relaxes to nonEmpty=false if the item type, or
//     anything reachable through it, is Optional.
func Normalize(t Type) Type {
	switch t.Kind {
	case KindOptional:
		if t.Elem == nil {
			return t
		}
		inner := Normalize(*t.Elem)
		if inner.Kind == KindOptional {
			return inner
		}
		return Type{Kind: KindOptional, Elem: cloneType(inner)}
	case KindArray:
		if t.Elem == nil {
			return t
		}
		inner := Normalize(*t.Elem)
		nonEmpty := t.NonEmpty && !reachesOptional(inner)
		return Type{Kind: KindArray, Elem: cloneType(inner), NonEmpty: nonEmpty}
	case KindMulti:
		return normalizeMulti(t.Members)
	default:
		return t
	}
}

func reachesOptional(t Type) bool {
	switch t.Kind {
	case KindOptional:
		return true
	case KindArray:
		return t.Elem != nil && reachesOptional(*t.Elem)
	default:
		return false
	}
}

func normalizeMulti(members []Type) Type {
	anyOptional := false
	seen := make(map[string]Type)
	order := make([]string, 0, len(members))
	for _, m := range members {
		nm := Normalize(m)
		if nm.Kind == KindOptional {
			anyOptional = true
			nm = *nm.Elem
		}
		key := TypeKey(nm)
		if _, ok := seen[key]; !ok {
			seen[key] = nm
			order = append(order, key)
		}
	}
	distinct := make([]Type, 0, len(order))
	for _, k := range order {
		distinct = append(distinct, seen[k])
	}
	result := Type{Kind: KindMulti, Members: distinct}
	if anyOptional {
		return Type{Kind: KindOptional, Elem: cloneType(result)}
	}
	return result
}

// EnsureOptional wraps t in Optional unless it already is one. Idempotent:
// EnsureOptional(EnsureOptional(t)) == EnsureOptional(t).
func EnsureOptional(t Type) Type {
	if t.IsOptional() {
		return t
	}
	return Optional(t)
}

// TypeKey returns a stable string key for t, used for map keys. Schema
// fields contribute name:type pairs rather than relying on struct order, so
// two keys only differ when the field set or types actually differ —
// TypesEqual below is the order-insensitive comparison spec §4.A asks for.
func TypeKey(t Type) string {
	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("array(%s,%v)", TypeKey(derefType(t.Elem)), t.NonEmpty)
	case KindOptional:
		return fmt.Sprintf("optional(%s)", TypeKey(derefType(t.Elem)))
	case KindMulti:
		s := ""
		for i, m := range t.Members {
			if i > 0 {
				s += "|"
			}
			s += TypeKey(m)
		}
		return fmt.Sprintf("multi(%s)", s)
	case KindSchema:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+":"+TypeKey(f.Type))
		}
		sort.Strings(parts)
		return fmt.Sprintf("schema(%s){%s}", t.Name, strings.Join(parts, ","))
	case KindEnum:
		s := ""
		for i, sym := range t.Symbols {
			if i > 0 {
				s += ","
			}
			s += sym
		}
		return fmt.Sprintf("enum(%s)", s)
	default:
		return string(t.Kind)
	}
}

func derefType(t *Type) Type {
	if t == nil {
		return Type{}
	}
	return *t
}

// TypesEqual implements deep equality modulo Schema field ordering, per
// spec §4.A.
func TypesEqual(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray:
		return a.NonEmpty == b.NonEmpty && TypesEqual(derefType(a.Elem), derefType(b.Elem))
	case KindOptional:
		return TypesEqual(derefType(a.Elem), derefType(b.Elem))
	case KindMulti:
		if len(a.Members) != len(b.Members) {
			return false
		}
		used := make([]bool, len(b.Members))
		for _, am := range a.Members {
			matched := false
			for j, bm := range b.Members {
				if !used[j] && TypesEqual(am, bm) {
					used[j] = true
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	case KindSchema:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		bFields := make(map[string]Type, len(b.Fields))
		for _, f := range b.Fields {
			bFields[f.Name] = f.Type
		}
		for _, f := range a.Fields {
			bt, ok := bFields[f.Name]
			if !ok || !TypesEqual(f.Type, bt) {
				return false
			}
		}
		return true
	case KindEnum:
		if len(a.Symbols) != len(b.Symbols) {
			return false
		}
		set := make(map[string]bool, len(a.Symbols))
		for _, s := range a.Symbols {
			set[s] = true
		}
		for _, s := range b.Symbols {
			if !set[s] {
				return false
			}
		}
		return true
	default:
		return true
	}
}
