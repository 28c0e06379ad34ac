/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: syntax.go
Description: Mutable syntax model rewritten by the constraint compiler. Maps primitive
names to types, tracks forbidden successor patterns and generates fresh duplicate
names and types. Not safe for concurrent use.
*/

package constraints

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// CastPrefix is the reserved surface name of identity casts
const CastPrefix = "#cast"

// IsCast reports whether name denotes an identity cast
func IsCast(name string) bool {
	return dsl.Prefix(name) == CastPrefix
}

// Syntax is the name to type mapping under rewriting
type Syntax struct {
	types     map[string]typesys.Type
	forbidden dsl.Forbidden

	typeCounter map[string]int // next suffix per duplicated type prefix
	nameCounter map[string]int // next suffix per primitive prefix
	casts       map[string]string
}

// NewSyntax copies raw and forbidden into a fresh syntax model
func NewSyntax(raw map[string]typesys.Type, forbidden dsl.Forbidden) *Syntax {
	types := make(map[string]typesys.Type, len(raw))
	for name, t := range raw {
		types[name] = t
	}
	if forbidden == nil {
		forbidden = make(dsl.Forbidden)
	}
	return &Syntax{
		types:       types,
		forbidden:   forbidden.Clone(),
		typeCounter: make(map[string]int),
		nameCounter: make(map[string]int),
		casts:       make(map[string]string),
	}
}

// Type returns the type registered for name
func (s *Syntax) Type(name string) (typesys.Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Set registers or replaces the type of name
func (s *Syntax) Set(name string, t typesys.Type) {
	s.types[name] = t
}

// Remove deletes name and every forbidden pattern it parents
func (s *Syntax) Remove(name string) {
	delete(s.types, name)
	for pattern := range s.forbidden {
		if pattern.Parent == name {
			delete(s.forbidden, pattern)
		}
	}
	for key, n := range s.casts {
		if n == name {
			delete(s.casts, key)
		}
	}
}

// Len returns the number of primitives
func (s *Syntax) Len() int { return len(s.types) }

// Names returns every primitive name in lexical order
func (s *Syntax) Names() []string {
	names := make([]string, 0, len(s.types))
	for n := range s.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Mapping returns a copy of the name to type mapping
func (s *Syntax) Mapping() map[string]typesys.Type {
	out := make(map[string]typesys.Type, len(s.types))
	for n, t := range s.types {
		out[n] = t
	}
	return out
}

// Forbidden returns the forbidden table
func (s *Syntax) Forbidden() dsl.Forbidden {
	return s.forbidden
}

// DuplicateType returns a fresh primitive type distinguishable from t, named after it
func (s *Syntax) DuplicateType(t typesys.Type) typesys.Type {
	prefix := typeStem(t)
	for {
		n := s.typeCounter[prefix]
		s.typeCounter[prefix] = n + 1
		name := fmt.Sprintf("%s%s%d", prefix, dsl.DuplicateSeparator, n)
		if !s.typeInUse(name) {
			return typesys.Primitive(name)
		}
	}
}

// DuplicatePrimitive registers a fresh name derived from name with type t.
// The duplicate inherits the forbidden patterns of name, both as a parent and
// as a forbidden successor.
func (s *Syntax) DuplicatePrimitive(name string, t typesys.Type) string {
	prefix := dsl.Prefix(name)
	var fresh string
	for {
		n := s.nameCounter[prefix]
		s.nameCounter[prefix] = n + 1
		fresh = fmt.Sprintf("%s%s%d", prefix, dsl.DuplicateSeparator, n)
		if _, taken := s.types[fresh]; !taken {
			break
		}
	}
	s.types[fresh] = t

	for _, pattern := range s.forbidden.Patterns() {
		set := s.forbidden[pattern]
		if pattern.Parent == name {
			s.forbidden.Add(fresh, pattern.Arg, set.Sorted()...)
		}
		if set.Has(name) {
			set[fresh] = struct{}{}
		}
	}
	return fresh
}

// EquivalentPrimitives returns name and every duplicate sharing its prefix
func (s *Syntax) EquivalentPrimitives(name string) []string {
	prefix := dsl.Prefix(name)
	var out []string
	for _, n := range s.Names() {
		if dsl.Prefix(n) == prefix {
			out = append(out, n)
		}
	}
	return out
}

// ProducersOf returns the primitives whose final return type equals t
func (s *Syntax) ProducersOf(t typesys.Type) []string {
	var out []string
	for _, n := range s.Names() {
		if typesys.Equal(typesys.Returns(s.types[n]), t) {
			out = append(out, n)
		}
	}
	return out
}

// FilterOutForbidden drops candidates forbidden at (parent, argno)
func (s *Syntax) FilterOutForbidden(parent string, argno int, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !s.forbidden.IsForbidden(parent, argno, c) {
			out = append(out, c)
		}
	}
	return out
}

// AddCast records that a value of the split type to can still be used where from
// is expected, by registering an identity primitive to -> from. It returns the cast
// name, or "" when from and to are equal.
func (s *Syntax) AddCast(from, to typesys.Type) string {
	if typesys.Equal(from, to) {
		return ""
	}
	key := to.String() + "=>" + from.String()
	if name, ok := s.casts[key]; ok {
		if _, exists := s.types[name]; exists {
			return name
		}
	}
	name := s.DuplicatePrimitive(CastPrefix, typesys.Arrow(to, from))
	s.casts[key] = name
	return name
}

// String renders the mapping one primitive per line
func (s *Syntax) String() string {
	var sb strings.Builder
	for _, n := range s.Names() {
		fmt.Fprintf(&sb, "%s: %s\n", n, s.types[n])
	}
	return sb.String()
}

func (s *Syntax) typeInUse(name string) bool {
	for _, t := range s.types {
		if typesys.Contains(t, func(x typesys.Type) bool {
			p, ok := x.(*typesys.PrimitiveType)
			return ok && p.Name() == name
		}) {
			return true
		}
	}
	return false
}

// typeStem turns a type into an identifier usable as a primitive type name
func typeStem(t typesys.Type) string {
	if p, ok := t.(*typesys.PrimitiveType); ok {
		return dsl.Prefix(p.Name())
	}
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range t.String() {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if r == '@' {
			break
		}
		if !lastUnderscore && sb.Len() > 0 {
			sb.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
