/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Type values for the synthesis engine. Provides primitive, polymorphic,
list and arrow types with structural equality, size computation and the helpers used
by the grammar builder to decide which productions can produce a requested type.
*/

package typesys

import (
	"strings"
)

// Type is an immutable type value.
// Two types are equal iff their canonical strings are equal.
type Type interface {
	// String returns the canonical representation of the type
	String() string
	// Size returns the structural size used to bound polymorphic instantiation
	Size() int
	isType()
}

// PrimitiveType is a named ground type such as int or string
type PrimitiveType struct {
	name string
}

// PolymorphicType is a named placeholder that can be unified with any type
type PolymorphicType struct {
	name string
}

// ListType is the type of homogeneous lists
type ListType struct {
	elem Type
	repr string
}

// ArrowType is a curried function type: In -> Out.
// Multi-argument functions are right-nested arrows.
type ArrowType struct {
	in   Type
	out  Type
	repr string
}

// Common ground types
var (
	INT    = Primitive("int")
	BOOL   = Primitive("bool")
	STRING = Primitive("string")
)

// Primitive creates a primitive type with the given name
func Primitive(name string) *PrimitiveType {
	return &PrimitiveType{name: name}
}

// Polymorphic creates a polymorphic placeholder with the given name (without the leading quote)
func Polymorphic(name string) *PolymorphicType {
	return &PolymorphicType{name: strings.TrimPrefix(name, "'")}
}

// List creates the type of lists of elem
func List(elem Type) *ListType {
	return &ListType{elem: elem, repr: "list(" + elem.String() + ")"}
}

// Arrow creates the function type in -> out
func Arrow(in, out Type) *ArrowType {
	left := in.String()
	if _, ok := in.(*ArrowType); ok {
		left = "(" + left + ")"
	}
	return &ArrowType{in: in, out: out, repr: left + " -> " + out.String()}
}

// Function builds the curried arrow t1 -> t2 -> ... -> tn.
// With a single type it returns that type unchanged.
func Function(types ...Type) Type {
	if len(types) == 0 {
		panic("typesys: Function needs at least one type")
	}
	out := types[len(types)-1]
	for i := len(types) - 2; i >= 0; i-- {
		out = Arrow(types[i], out)
	}
	return out
}

// Name returns the name of the primitive type
func (t *PrimitiveType) Name() string { return t.name }

func (t *PrimitiveType) String() string { return t.name }

func (t *PrimitiveType) Size() int { return 1 }

func (*PrimitiveType) isType() {}

// Name returns the name of the placeholder
func (t *PolymorphicType) Name() string { return t.name }

func (t *PolymorphicType) String() string { return "'" + t.name }

func (t *PolymorphicType) Size() int { return 1 }

func (*PolymorphicType) isType() {}

// Elem returns the element type
func (t *ListType) Elem() Type { return t.elem }

func (t *ListType) String() string { return t.repr }

func (t *ListType) Size() int { return 1 + t.elem.Size() }

func (*ListType) isType() {}

// In returns the argument type
func (t *ArrowType) In() Type { return t.in }

// Out returns the result type
func (t *ArrowType) Out() Type { return t.out }

func (t *ArrowType) String() string { return t.repr }

func (t *ArrowType) Size() int { return t.in.Size() + t.out.Size() }

func (*ArrowType) isType() {}

// Equal reports whether a and b are structurally equal
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// Returns strips every argument of an arrow chain and returns its final result type
func Returns(t Type) Type {
	for {
		arrow, ok := t.(*ArrowType)
		if !ok {
			return t
		}
		t = arrow.out
	}
}

// Arguments returns the argument types of an arrow chain in order.
// Non-arrow types have no arguments.
func Arguments(t Type) []Type {
	var args []Type
	for {
		arrow, ok := t.(*ArrowType)
		if !ok {
			return args
		}
		args = append(args, arrow.in)
		t = arrow.out
	}
}

// Arity returns the number of arguments of an arrow chain
func Arity(t Type) int {
	n := 0
	for {
		arrow, ok := t.(*ArrowType)
		if !ok {
			return n
		}
		n++
		t = arrow.out
	}
}

// EndsWith reports whether stripping some leading arguments of t yields target.
// On success it returns the stripped argument types in order (possibly none).
func EndsWith(t, target Type) ([]Type, bool) {
	var args []Type
	for {
		if Equal(t, target) {
			return args, true
		}
		arrow, ok := t.(*ArrowType)
		if !ok {
			return nil, false
		}
		args = append(args, arrow.in)
		t = arrow.out
	}
}

// WithReturn replaces the final result type of an arrow chain
func WithReturn(t, ret Type) Type {
	args := Arguments(t)
	return Function(append(args, ret)...)
}

// WithArgument replaces the argument at position argno of an arrow chain.
// It returns false when argno is out of range.
func WithArgument(t Type, argno int, arg Type) (Type, bool) {
	args := Arguments(t)
	if argno < 0 || argno >= len(args) {
		return t, false
	}
	args[argno] = arg
	return Function(append(args, Returns(t))...), true
}

// IsPolymorphic reports whether t contains a polymorphic placeholder
func IsPolymorphic(t Type) bool {
	switch v := t.(type) {
	case *PolymorphicType:
		return true
	case *ListType:
		return IsPolymorphic(v.elem)
	case *ArrowType:
		return IsPolymorphic(v.in) || IsPolymorphic(v.out)
	default:
		return false
	}
}

// Decompose returns the primitive types and the polymorphic placeholders occurring in t.
// Both slices are free of duplicates and keep first-occurrence order.
func Decompose(t Type) ([]*PrimitiveType, []*PolymorphicType) {
	var prims []*PrimitiveType
	var polys []*PolymorphicType
	seen := make(map[string]bool)

	var walk func(Type)
	walk = func(t Type) {
		switch v := t.(type) {
		case *PrimitiveType:
			if !seen[v.String()] {
				seen[v.String()] = true
				prims = append(prims, v)
			}
		case *PolymorphicType:
			if !seen[v.String()] {
				seen[v.String()] = true
				polys = append(polys, v)
			}
		case *ListType:
			walk(v.elem)
		case *ArrowType:
			walk(v.in)
			walk(v.out)
		}
	}
	walk(t)

	return prims, polys
}

// Map replaces every sub-type of t whose canonical string is a key of mapping.
// Outermost matches win; the replacement is not visited again.
func Map(t Type, mapping map[string]Type) Type {
	if r, ok := mapping[t.String()]; ok {
		return r
	}
	switch v := t.(type) {
	case *ListType:
		return List(Map(v.elem, mapping))
	case *ArrowType:
		return Arrow(Map(v.in, mapping), Map(v.out, mapping))
	default:
		return t
	}
}

// Contains reports whether some sub-type of t satisfies pred
func Contains(t Type, pred func(Type) bool) bool {
	if pred(t) {
		return true
	}
	switch v := t.(type) {
	case *ListType:
		return Contains(v.elem, pred)
	case *ArrowType:
		return Contains(v.in, pred) || Contains(v.out, pred)
	default:
		return false
	}
}
