/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: program.go
Description: Program values. A Derivable is a single grammar production (primitive,
variable, constant or recursive self call) and Function applies a derivable to
argument programs. Keys are structural and include types so that duplicated
primitives sharing a surface name stay distinct.
*/

package program

import (
	"fmt"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// Kind tags the closed set of derivable productions
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindVariable
	KindConstant
	KindSelf
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindSelf:
		return "self"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Program is any synthesized expression
type Program interface {
	// Type is the type of the value the program denotes
	Type() typesys.Type
	// Depth is the height of the program tree, leaves have depth 1
	Depth() int
	// Key is a structural identity including types
	Key() string
	String() string
}

// Derivable is a leaf production of the grammar
type Derivable struct {
	Kind  Kind
	Name  string       // primitive name, empty for other kinds
	Index int          // variable index into the type request arguments
	Typ   typesys.Type // declared type
}

// NewPrimitive creates a primitive production
func NewPrimitive(name string, t typesys.Type) Derivable {
	return Derivable{Kind: KindPrimitive, Name: name, Typ: t}
}

// NewVariable creates a reference to argument i of the type request
func NewVariable(i int, t typesys.Type) Derivable {
	return Derivable{Kind: KindVariable, Index: i, Typ: t}
}

// NewConstant creates a constant whose value is supplied at evaluation time
func NewConstant(t typesys.Type) Derivable {
	return Derivable{Kind: KindConstant, Typ: t}
}

// NewSelf creates the recursive self call production
func NewSelf(t typesys.Type) Derivable {
	return Derivable{Kind: KindSelf, Typ: t}
}

func (d Derivable) Type() typesys.Type { return d.Typ }

func (d Derivable) Depth() int { return 1 }

// Key encodes kind, identifying field and type
func (d Derivable) Key() string {
	switch d.Kind {
	case KindPrimitive:
		return "p:" + d.Name + ":" + d.Typ.String()
	case KindVariable:
		return fmt.Sprintf("v:%d:%s", d.Index, d.Typ)
	case KindConstant:
		return "c:" + d.Typ.String()
	default:
		return "s:" + d.Typ.String()
	}
}

func (d Derivable) String() string {
	switch d.Kind {
	case KindPrimitive:
		return d.Name
	case KindVariable:
		return fmt.Sprintf("var%d", d.Index)
	case KindConstant:
		return "<" + d.Typ.String() + ">"
	default:
		return "@self"
	}
}

// Equal compares kind, identifying fields and type
func (d Derivable) Equal(o Derivable) bool {
	return d.Key() == o.Key()
}

// Function is the application of a derivable to argument programs
type Function struct {
	Head Derivable
	Args []Program

	key   string
	depth int
	typ   typesys.Type
}

// Apply builds a Function. The result type is the head type with the
// applied arguments stripped; a head with no arguments is returned as is.
func Apply(head Derivable, args ...Program) Program {
	if len(args) == 0 {
		return head
	}

	t := head.Typ
	for range args {
		arrow, ok := t.(*typesys.ArrowType)
		if !ok {
			panic(fmt.Sprintf("program: %s applied to too many arguments", head))
		}
		t = arrow.Out()
	}

	depth := 0
	keys := make([]string, len(args))
	for i, a := range args {
		depth = max(depth, a.Depth())
		keys[i] = a.Key()
	}

	return &Function{
		Head:  head,
		Args:  args,
		key:   "(" + head.Key() + " " + strings.Join(keys, " ") + ")",
		depth: depth + 1,
		typ:   t,
	}
}

func (f *Function) Type() typesys.Type { return f.typ }

func (f *Function) Depth() int { return f.depth }

func (f *Function) Key() string { return f.key }

// String renders the program in prefix notation: (f a b)
func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(f.Head.String())
	for _, a := range f.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// WithArg returns a copy of f with argument i replaced
func (f *Function) WithArg(i int, arg Program) Program {
	args := make([]Program, len(f.Args))
	copy(args, f.Args)
	args[i] = arg
	return Apply(f.Head, args...)
}

// Walk visits p and every sub-program in pre-order
func Walk(p Program, visit func(Program)) {
	visit(p)
	if f, ok := p.(*Function); ok {
		for _, a := range f.Args {
			Walk(a, visit)
		}
	}
}

// Size counts the nodes of p
func Size(p Program) int {
	n := 0
	Walk(p, func(Program) { n++ })
	return n
}

// UsesKind reports whether some node of p is a derivable of kind k
func UsesKind(p Program, k Kind) bool {
	found := false
	Walk(p, func(q Program) {
		switch v := q.(type) {
		case Derivable:
			found = found || v.Kind == k
		case *Function:
			found = found || v.Head.Kind == k
		}
	})
	return found
}
