/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder.go
Description: Depth bounded grammar construction. Starting from the return type of
the type request, a worklist expands each non-terminal with the variables,
constants, leaf primitives and function applications that can produce its type,
creating argument non-terminals one level deeper until the depth bound.
*/

package grammar

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// BuildOptions holds the tunables of Build
type BuildOptions struct {
	UpperBoundTypeSize int            // size bound for polymorphic instantiation
	MinVariableDepth   int            // first depth at which variables and constants appear
	NGram              int            // context window order, 2 keeps the parent step
	Recursive          bool           // allow calls to the program being synthesized
	ConstantTypes      []typesys.Type // types admitting an externally valued constant
	Logger             logrus.FieldLogger
}

// BuildOption configures Build
type BuildOption func(*BuildOptions)

// DefaultBuildOptions returns the defaults used by Build
func DefaultBuildOptions() BuildOptions {
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	return BuildOptions{
		UpperBoundTypeSize: 10,
		MinVariableDepth:   1,
		NGram:              2,
		Logger:             silent,
	}
}

// UpperBoundTypeSize sets the polymorphic instantiation bound
func UpperBoundTypeSize(n int) BuildOption {
	return func(o *BuildOptions) { o.UpperBoundTypeSize = n }
}

// MinVariableDepth sets the depth floor for variables and constants
func MinVariableDepth(n int) BuildOption {
	return func(o *BuildOptions) { o.MinVariableDepth = n }
}

// WithNGram sets the context window order
func WithNGram(n int) BuildOption {
	return func(o *BuildOptions) { o.NGram = n }
}

// Recursive enables the self call production
func Recursive(enabled bool) BuildOption {
	return func(o *BuildOptions) { o.Recursive = enabled }
}

// ConstantTypes sets the types admitting constants
func ConstantTypes(types ...typesys.Type) BuildOption {
	return func(o *BuildOptions) { o.ConstantTypes = types }
}

// WithLogger sets the logger receiving build statistics
func WithLogger(l logrus.FieldLogger) BuildOption {
	return func(o *BuildOptions) { o.Logger = l }
}

// Build constructs the rule table deriving every program of type typeRequest
// with depth at most maxDepth. The DSL is prepared in place (polymorphic
// instantiation and forbidden materialization, both idempotent).
func Build(d *dsl.DSL, typeRequest typesys.Type, maxDepth int, opts ...BuildOption) *RuleTable {
	o := DefaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d.InstantiatePolymorphicTypes(o.UpperBoundTypeSize)
	d.InstantiateForbidden()

	b := &builder{
		opts:        o,
		maxDepth:    maxDepth,
		typeRequest: typeRequest,
		primitives:  d.ListPrimitives(),
		forbidden:   d.ForbiddenPatterns(),
		pending:     make(map[Key]bool),
		built:       make(map[Key]bool),
	}
	for i, arg := range typesys.Arguments(typeRequest) {
		b.variables = append(b.variables, program.NewVariable(i, arg))
	}
	constants := make(map[string]bool, len(o.ConstantTypes))
	for _, t := range o.ConstantTypes {
		constants[t.String()] = true
	}
	b.constants = constants

	start := NonTerminal{
		Type:    typesys.Returns(typeRequest),
		Context: NewNGram(o.NGram),
		Depth:   0,
	}
	table := newRuleTable(start, typeRequest)
	b.run(table)

	o.Logger.WithFields(logrus.Fields{
		"type_request":  typeRequest.String(),
		"max_depth":     maxDepth,
		"non_terminals": table.Len(),
		"productions":   table.ProductionCount(),
	}).Debug("Grammar built")

	return table
}

type builder struct {
	opts        BuildOptions
	maxDepth    int
	typeRequest typesys.Type
	primitives  []program.Derivable
	variables   []program.Derivable
	constants   map[string]bool
	forbidden   dsl.Forbidden

	queue   []NonTerminal
	pending map[Key]bool // queued, not yet expanded
	built   map[Key]bool // expanded
}

func (b *builder) enqueue(nt NonTerminal) {
	key := nt.Key()
	if b.pending[key] || b.built[key] {
		return
	}
	b.pending[key] = true
	b.queue = append(b.queue, nt)
}

func (b *builder) run(table *RuleTable) {
	b.enqueue(table.Start())

	for len(b.queue) > 0 {
		nt := b.queue[0]
		b.queue = b.queue[1:]
		key := nt.Key()
		delete(b.pending, key)
		b.built[key] = true

		rule := table.ensure(nt)
		if nt.Depth < b.maxDepth {
			b.expand(rule)
		}
	}
}

func (b *builder) expand(rule *Rule) {
	nt := rule.NonTerminal
	target := nt.Type

	// Forbidding only looks at the immediately preceding primitive
	var forbidden dsl.NameSet
	if last, ok := nt.Context.Last(); ok && last.Program.Kind == program.KindPrimitive {
		forbidden = b.forbidden[dsl.Pattern{Parent: last.Program.Name, Arg: last.Arg}]
	}

	if nt.Depth >= b.opts.MinVariableDepth {
		for _, v := range b.variables {
			if typesys.Equal(v.Typ, target) {
				rule.put(Production{Program: v})
			}
		}
		if b.constants[target.String()] {
			rule.put(Production{Program: program.NewConstant(target)})
		}
	}

	for _, p := range b.primitives {
		if typesys.Arity(p.Typ) == 0 && typesys.Equal(p.Typ, target) && !forbidden.Has(p.Name) {
			rule.put(Production{Program: p})
		}
	}

	if nt.Depth >= b.maxDepth-1 {
		return
	}

	for _, p := range b.primitives {
		if forbidden.Has(p.Name) {
			continue
		}
		b.addCall(rule, p)
	}

	if nt.Depth >= b.opts.MinVariableDepth {
		for _, v := range b.variables {
			b.addCall(rule, v)
		}
	}

	if b.opts.Recursive {
		b.addCall(rule, program.NewSelf(b.typeRequest))
	}
}

// addCall adds head applied to fresh argument non-terminals when it can produce the rule type
func (b *builder) addCall(rule *Rule, head program.Derivable) {
	nt := rule.NonTerminal
	argTypes, ok := typesys.EndsWith(head.Typ, nt.Type)
	if !ok {
		return
	}

	args := make([]NonTerminal, len(argTypes))
	for i, at := range argTypes {
		args[i] = NonTerminal{
			Type:    at,
			Context: nt.Context.Successor(Step{Program: head, Arg: i}),
			Depth:   nt.Depth + 1,
		}
		b.enqueue(args[i])
	}
	rule.put(Production{Program: head, Args: args})
}
