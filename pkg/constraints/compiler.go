/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compiler.go
Description: Constraint compiler. Rewrites a raw syntax so that the grammar built
from it only derives programs satisfying a list of pattern constraints. Allowed
primitives at a position receive a fresh duplicated return type shared with the
position; forbidden lists are compiled as the complementary allow-list; var
constraints split the type request argument types so that a parameter used at a
constrained position does not alias its other uses.
*/

package constraints

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

var (
	// ErrTypeRequestRequired is returned when a var constraint is compiled without a type request
	ErrTypeRequestRequired = errors.New("type request required for var constraints")
	// ErrUnknownPrimitive is returned when a constraint names a primitive absent from the syntax
	ErrUnknownPrimitive = errors.New("unknown primitive")
	// ErrArity is returned when a constraint has more argument patterns than its head accepts
	ErrArity = errors.New("too many argument patterns")
	// ErrVariableIndex is returned when var(...) references a missing type request argument
	ErrVariableIndex = errors.New("variable index out of range")
)

// Result is the output of a compilation
type Result struct {
	Syntax      map[string]typesys.Type
	TypeRequest typesys.Type
	Forbidden   dsl.Forbidden
}

// DSL builds the DSL described by the rewritten syntax
func (r *Result) DSL() *dsl.DSL {
	return dsl.New(r.Syntax, r.Forbidden)
}

// Option configures Compile
type Option func(*compiler)

// WithTypeRequest sets the type request threaded through var constraints
func WithTypeRequest(t typesys.Type) Option {
	return func(c *compiler) { c.typeRequest = t }
}

// WithForbidden seeds the forbidden successor table
func WithForbidden(f dsl.Forbidden) Option {
	return func(c *compiler) { c.forbidden = f }
}

// WithLogger sets the logger used for per-constraint debug output
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *compiler) { c.logger = l }
}

// WithProgress registers a callback invoked after each constraint
func WithProgress(fn func(done, total int)) Option {
	return func(c *compiler) { c.progress = fn }
}

type compiler struct {
	syntax      *Syntax
	typeRequest typesys.Type
	forbidden   dsl.Forbidden
	counters    map[int]int // uses of each type request argument by var constraints
	logger      logrus.FieldLogger
	progress    func(done, total int)
}

// Compile applies every constraint to raw and returns the rewritten syntax.
// Constraints using var(...) are compiled first, in their original relative order.
func Compile(raw map[string]typesys.Type, constraints []string, opts ...Option) (*Result, error) {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	c := &compiler{
		counters: make(map[int]int),
		logger:   silent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.syntax = NewSyntax(raw, c.forbidden)

	parsed := make([]*Constraint, 0, len(constraints))
	for _, text := range constraints {
		pc, err := Parse(text)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pc)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].HasVar() && !parsed[j].HasVar()
	})

	for i, pc := range parsed {
		before := c.syntax.Len()
		if _, err := c.process(pc, nil); err != nil {
			return nil, fmt.Errorf("constraint %s: %w", pc, err)
		}
		removed := clean(c.syntax, c.typeRequest)

		c.logger.WithFields(logrus.Fields{
			"constraint": pc.String(),
			"primitives": c.syntax.Len(),
			"added":      c.syntax.Len() - before + removed,
			"removed":    removed,
		}).Debug("Constraint compiled")

		if c.progress != nil {
			c.progress(i+1, len(parsed))
		}
	}

	return &Result{
		Syntax:      c.syntax.Mapping(),
		TypeRequest: c.typeRequest,
		Forbidden:   c.syntax.Forbidden().Clone(),
	}, nil
}

// process applies pc to its head primitives and returns them. When parents is
// non-empty the head is a nested choice and is applied to fresh duplicates only.
func (c *compiler) process(pc *Constraint, parents []string) ([]string, error) {
	if !c.known(pc.Head) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, pc.Head)
	}
	var funcs []string
	if len(parents) == 0 {
		funcs = c.syntax.EquivalentPrimitives(pc.Head)
	} else {
		for _, name := range c.baseNames(pc.Head) {
			t, _ := c.syntax.Type(name)
			funcs = append(funcs, c.syntax.DuplicatePrimitive(name, t))
		}
	}
	if len(funcs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, pc.Head)
	}

	// Resolve the nested choices bottom-up before constraining this level
	resolved := make([][]string, len(pc.Args))
	for argno, arg := range pc.Args {
		switch arg.Kind {
		case ArgAllow:
			for _, ch := range arg.Choices {
				if ch.Nested != nil {
					names, err := c.process(ch.Nested, funcs)
					if err != nil {
						return nil, err
					}
					resolved[argno] = append(resolved[argno], names...)
					continue
				}
				if !c.known(ch.Name) {
					return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, ch.Name)
				}
				resolved[argno] = append(resolved[argno], ch.Name)
			}
		case ArgForbid:
			for _, name := range arg.Names {
				if !c.known(name) {
					return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
				}
			}
			resolved[argno] = arg.Names
		}
	}

	if pc.Unconstrained() {
		return funcs, nil
	}

	for _, f := range funcs {
		t, _ := c.syntax.Type(f)
		if typesys.Arity(t) < len(pc.Args) {
			return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArity, f, typesys.Arity(t), len(pc.Args))
		}
	}

	for argno, arg := range pc.Args {
		switch arg.Kind {
		case ArgAllow:
			for _, group := range c.bySlot(funcs, argno) {
				c.addAllowList(group, argno, resolved[argno])
			}
		case ArgForbid:
			for _, group := range c.bySlot(funcs, argno) {
				c.addForbidList(group, argno, resolved[argno])
			}
		case ArgVar:
			for _, f := range funcs {
				if err := c.addVarConstraint(f, argno, arg.Vars); err != nil {
					return nil, err
				}
			}
		}
	}

	return funcs, nil
}

// bySlot groups parents sharing the type of argument argno, in first-seen order
func (c *compiler) bySlot(parents []string, argno int) [][]string {
	var groups [][]string
	index := make(map[string]int)
	for _, p := range parents {
		key := c.argType(p, argno).String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}

// known reports whether name is in the syntax. A duplicate must exist under
// exactly that name, a surface name may survive only through its duplicates.
func (c *compiler) known(name string) bool {
	if dsl.IsDuplicate(name) {
		_, ok := c.syntax.Type(name)
		return ok
	}
	return len(c.syntax.EquivalentPrimitives(name)) > 0
}

// baseNames returns name itself when it exists, otherwise its known duplicates
func (c *compiler) baseNames(name string) []string {
	if _, ok := c.syntax.Type(name); ok {
		return []string{name}
	}
	return c.syntax.EquivalentPrimitives(name)
}

func (c *compiler) argType(name string, argno int) typesys.Type {
	t, _ := c.syntax.Type(name)
	return typesys.Arguments(t)[argno]
}

func (c *compiler) setArg(name string, argno int, arg typesys.Type) {
	t, ok := c.syntax.Type(name)
	if !ok {
		return
	}
	if nt, ok := typesys.WithArgument(t, argno, arg); ok {
		c.syntax.Set(name, nt)
	}
}

// addAllowList restricts argument argno of parents to the given primitives
func (c *compiler) addAllowList(parents []string, argno int, names []string) {
	first := parents[0]
	slot := c.argType(first, argno)

	names = c.syntax.FilterOutForbidden(first, argno, names)
	if len(names) == 0 {
		return
	}

	// Explicit duplicates are retyped in place, surface names are duplicated
	var retype, copyFrom []string
	allowed := make(map[string]bool)
	seen := make(map[string]bool)
	for _, n := range names {
		var expanded []string
		if dsl.IsDuplicate(n) {
			if !seen[n] {
				retype = append(retype, n)
			}
			expanded = []string{n}
		} else {
			expanded = c.baseNames(n)
			for _, e := range expanded {
				if !seen[e] {
					copyFrom = append(copyFrom, e)
				}
			}
		}
		for _, e := range expanded {
			seen[e] = true
			allowed[dsl.Prefix(e)] = true
		}
	}

	if !c.needsFreshType(slot, allowed, append(append([]string{}, retype...), copyFrom...)) {
		return
	}

	fresh := c.syntax.DuplicateType(slot)
	for _, n := range retype {
		t, _ := c.syntax.Type(n)
		c.syntax.Set(n, typesys.WithReturn(t, fresh))
	}
	var copies []string
	for _, n := range copyFrom {
		t, _ := c.syntax.Type(n)
		copies = append(copies, c.syntax.DuplicatePrimitive(n, typesys.WithReturn(t, fresh)))
	}

	for _, p := range parents {
		c.setArg(p, argno, fresh)
	}

	// Copies of the parent itself stay constrained at the same position
	for _, n := range copies {
		if dsl.Prefix(n) == dsl.Prefix(first) {
			c.setArg(n, argno, fresh)
		}
	}
}

// needsFreshType reports whether the slot already admits exactly the allowed primitives
func (c *compiler) needsFreshType(slot typesys.Type, allowed map[string]bool, candidates []string) bool {
	for _, p := range c.syntax.ProducersOf(slot) {
		if !allowed[dsl.Prefix(p)] {
			return true
		}
	}
	for _, n := range candidates {
		t, _ := c.syntax.Type(n)
		if !typesys.Equal(typesys.Returns(t), slot) {
			return true
		}
	}
	return false
}

// addForbidList restricts argument argno of parents to every current producer
// except the given primitives
func (c *compiler) addForbidList(parents []string, argno int, names []string) {
	first := parents[0]
	slot := c.argType(first, argno)

	excluded := make(map[string]bool)
	for _, n := range names {
		for _, e := range c.syntax.EquivalentPrimitives(n) {
			excluded[e] = true
		}
	}

	var remaining []string
	for _, p := range c.syntax.ProducersOf(slot) {
		if !excluded[p] {
			remaining = append(remaining, p)
		}
	}

	if len(remaining) == 0 {
		empty := c.syntax.DuplicateType(slot)
		for _, p := range parents {
			c.setArg(p, argno, empty)
		}
		return
	}
	if len(remaining) == len(c.syntax.ProducersOf(slot)) {
		return
	}
	c.addAllowList(parents, argno, remaining)
}

// addVarConstraint restricts argument argno of parent to expressions built from
// the listed type request arguments and constants of their types
func (c *compiler) addVarConstraint(parent string, argno int, vars []int) error {
	if c.typeRequest == nil {
		return ErrTypeRequestRequired
	}
	args := typesys.Arguments(c.typeRequest)
	for _, v := range vars {
		if v >= len(args) {
			return fmt.Errorf("%w: var(%d) with %d arguments in %s", ErrVariableIndex, v, len(args), c.typeRequest)
		}
	}

	slot := c.argType(parent, argno)

	varTypes := make(map[string]typesys.Type)
	var varOrder []string
	for _, v := range vars {
		key := args[v].String()
		if _, ok := varTypes[key]; !ok {
			varOrder = append(varOrder, key)
		}
		varTypes[key] = args[v]
	}

	toDuplicate := c.producersOfUsing(slot, varTypes)
	for _, n := range c.syntax.Names() {
		t, _ := c.syntax.Type(n)
		if _, ok := varTypes[t.String()]; ok && typesys.Arity(t) == 0 && !IsCast(n) {
			toDuplicate = append(toDuplicate, n)
		}
	}
	sort.Strings(toDuplicate)
	toDuplicate = dedupe(toDuplicate)

	mapping := make(map[string]typesys.Type)
	for _, key := range varOrder {
		linked := false
		for _, v := range vars {
			if args[v].String() == key && c.counters[v] > 0 {
				linked = true
			}
		}
		if linked {
			mapping[key] = varTypes[key]
		} else {
			mapping[key] = c.syntax.DuplicateType(varTypes[key])
		}
	}
	for _, n := range toDuplicate {
		t, _ := c.syntax.Type(n)
		ret := typesys.Returns(t)
		if _, ok := mapping[ret.String()]; !ok {
			mapping[ret.String()] = c.syntax.DuplicateType(ret)
		}
	}
	// Nothing built from the variables produces the slot type: leave it empty
	if _, ok := mapping[slot.String()]; !ok {
		mapping[slot.String()] = c.syntax.DuplicateType(slot)
	}

	for _, n := range toDuplicate {
		t, _ := c.syntax.Type(n)
		mapped := typesys.Map(t, mapping)
		if typesys.Equal(mapped, t) {
			continue
		}
		c.syntax.DuplicatePrimitive(n, mapped)
	}
	for _, key := range varOrder {
		c.syntax.AddCast(varTypes[key], mapping[key])
	}

	c.setArg(parent, argno, typesys.Map(slot, mapping))

	for _, v := range vars {
		args[v] = typesys.Map(args[v], mapping)
		c.counters[v]++
	}
	c.typeRequest = typesys.Function(append(args, typesys.Returns(c.typeRequest))...)
	return nil
}

// producersOfUsing returns the primitives that can appear in an expression of type
// target built on top of values of the given types
func (c *compiler) producersOfUsing(target typesys.Type, consumed map[string]typesys.Type) []string {
	useful := make(map[string]bool)
	for key := range consumed {
		useful[key] = true
	}

	for changed := true; changed; {
		changed = false
		for _, n := range c.syntax.Names() {
			t, _ := c.syntax.Type(n)
			ret := typesys.Returns(t).String()
			if useful[ret] {
				continue
			}
			for _, a := range typesys.Arguments(t) {
				if useful[a.String()] {
					useful[ret] = true
					changed = true
					break
				}
			}
		}
	}
	if !useful[target.String()] {
		return nil
	}

	var out []string
	picked := make(map[string]bool)
	visited := map[string]bool{target.String(): true}
	queue := []typesys.Type{target}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range c.syntax.ProducersOf(current) {
			t, _ := c.syntax.Type(n)
			usesVar := false
			for _, a := range typesys.Arguments(t) {
				if !useful[a.String()] {
					continue
				}
				usesVar = true
				if !visited[a.String()] {
					visited[a.String()] = true
					queue = append(queue, a)
				}
			}
			if usesVar && !picked[n] {
				picked[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func dedupe(sorted []string) []string {
	out := make([]string, 0, len(sorted))
	for i, s := range sorted {
		if i > 0 && sorted[i-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}
