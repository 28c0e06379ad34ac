/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: evaluator.go
Description: Program evaluation. DSLEvaluator interprets programs against a table
of primitive semantics keyed by surface name (duplicates share the semantics of
their original), binds variables to task inputs and constants to externally
supplied values, and caches results per (program, inputs) pair.
*/

package semantic

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

var (
	ErrUnknownPrimitive = errors.New("no semantics for primitive")
	ErrNotAFunction     = errors.New("value is not a function")
	ErrVariable         = errors.New("variable out of range")
	ErrMissingConstant  = errors.New("no constant bound for type")
	ErrRecursionLimit   = errors.New("recursion limit reached")
)

// castName is the surface name of identity casts inserted by constraint compilation
const castName = "#cast"

// Evaluator runs a program on the inputs of one example
type Evaluator interface {
	Eval(p program.Program, inputs []any) (any, error)
}

// ConstantEvaluator additionally binds constant productions, keyed by type string
type ConstantEvaluator interface {
	Evaluator
	EvalWithConstants(p program.Program, inputs []any, constants map[string]any) (any, error)
}

// Func is a curried primitive implementation receiving all its arguments at once
type Func struct {
	Arity int
	Fn    func(args []any) (any, error)
}

// Apply applies fn to args, building partial applications and applying results
// of saturated calls to the remaining arguments
func Apply(fn any, args ...any) (any, error) {
	f, ok := fn.(Func)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotAFunction, fn)
	}
	switch {
	case len(args) == 0:
		return f, nil
	case len(args) < f.Arity:
		bound := append([]any{}, args...)
		return Func{
			Arity: f.Arity - len(args),
			Fn: func(rest []any) (any, error) {
				return f.Fn(append(append([]any{}, bound...), rest...))
			},
		}, nil
	case len(args) == f.Arity:
		return f.Fn(args)
	default:
		out, err := f.Fn(args[:f.Arity])
		if err != nil {
			return nil, err
		}
		return Apply(out, args[f.Arity:]...)
	}
}

// Semantics maps surface primitive names to values or Funcs
type Semantics map[string]any

// Option configures a DSLEvaluator
type Option func(*DSLEvaluator)

// WithCacheSize bounds the result cache, 0 disables caching
func WithCacheSize(n int) Option {
	return func(e *DSLEvaluator) { e.cacheSize = n }
}

// WithRecursionLimit bounds nested self calls
func WithRecursionLimit(n int) Option {
	return func(e *DSLEvaluator) { e.recursionLimit = n }
}

// DSLEvaluator interprets programs with a semantics table
type DSLEvaluator struct {
	semantics      Semantics
	cacheSize      int
	recursionLimit int

	mu     sync.Mutex
	cache  map[string]any
	hits   int64
	misses int64
}

// NewDSLEvaluator creates an evaluator for the given semantics
func NewDSLEvaluator(semantics Semantics, opts ...Option) *DSLEvaluator {
	e := &DSLEvaluator{
		semantics:      semantics,
		cacheSize:      100000,
		recursionLimit: 50,
		cache:          make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eval evaluates p with the given inputs
func (e *DSLEvaluator) Eval(p program.Program, inputs []any) (any, error) {
	return e.EvalWithConstants(p, inputs, nil)
}

// EvalWithConstants evaluates p binding constants by type string
func (e *DSLEvaluator) EvalWithConstants(p program.Program, inputs []any, constants map[string]any) (any, error) {
	key := cacheKey(p, inputs, constants)
	if e.cacheSize > 0 {
		e.mu.Lock()
		if v, ok := e.cache[key]; ok {
			e.hits++
			e.mu.Unlock()
			return v, nil
		}
		e.misses++
		e.mu.Unlock()
	}

	run := &evaluation{evaluator: e, root: p, constants: constants}
	out, err := run.eval(p, inputs, 0)
	if err != nil {
		return nil, err
	}

	if e.cacheSize > 0 {
		e.mu.Lock()
		if len(e.cache) >= e.cacheSize {
			e.cache = make(map[string]any)
		}
		e.cache[key] = out
		e.mu.Unlock()
	}
	return out, nil
}

// cacheKey renders p, inputs and constants so that values of different types or
// with different string boundaries never share a key
func cacheKey(p program.Program, inputs []any, constants map[string]any) string {
	var b strings.Builder
	b.WriteString(p.Key())
	b.WriteByte('|')
	writeValue(&b, inputs)
	b.WriteByte('|')

	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(strconv.Quote(name))
		b.WriteByte('=')
		writeValue(&b, constants[name])
		b.WriteByte(';')
	}
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("nil")
	case int:
		b.WriteString("i")
		b.WriteString(strconv.Itoa(x))
	case float64:
		b.WriteString("f")
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case string:
		b.WriteString(strconv.Quote(x))
	case []any:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	default:
		// %#v quotes strings and names the type of typed slices and maps
		fmt.Fprintf(b, "%T%#v", x, x)
	}
}

// ClearCache drops every cached result
func (e *DSLEvaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]any)
}

// CacheHitRate returns the fraction of lookups answered by the cache
func (e *DSLEvaluator) CacheHitRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.hits + e.misses
	if total == 0 {
		return 0
	}
	return float64(e.hits) / float64(total)
}

// Supports reports whether every primitive of names has semantics
func (e *DSLEvaluator) Supports(names []string) []string {
	var missing []string
	for _, n := range names {
		prefix := dsl.Prefix(n)
		if prefix == castName {
			continue
		}
		if _, ok := e.semantics[prefix]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

type evaluation struct {
	evaluator *DSLEvaluator
	root      program.Program
	constants map[string]any
}

func (r *evaluation) eval(p program.Program, inputs []any, depth int) (any, error) {
	switch v := p.(type) {
	case program.Derivable:
		return r.value(v, inputs, depth)
	case *program.Function:
		head, err := r.value(v.Head, inputs, depth)
		if err != nil {
			return nil, err
		}
		args := make([]any, len(v.Args))
		for i, a := range v.Args {
			if args[i], err = r.eval(a, inputs, depth); err != nil {
				return nil, err
			}
		}
		return Apply(head, args...)
	default:
		return nil, fmt.Errorf("unsupported program node %T", p)
	}
}

func (r *evaluation) value(d program.Derivable, inputs []any, depth int) (any, error) {
	switch d.Kind {
	case program.KindVariable:
		if d.Index < 0 || d.Index >= len(inputs) {
			return nil, fmt.Errorf("%w: var%d with %d inputs", ErrVariable, d.Index, len(inputs))
		}
		return inputs[d.Index], nil

	case program.KindConstant:
		c, ok := r.constants[d.Typ.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingConstant, d.Typ)
		}
		return c, nil

	case program.KindSelf:
		if depth >= r.evaluator.recursionLimit {
			return nil, ErrRecursionLimit
		}
		return Func{
			Arity: typesys.Arity(d.Typ),
			Fn: func(args []any) (any, error) {
				return r.eval(r.root, args, depth+1)
			},
		}, nil

	default:
		prefix := dsl.Prefix(d.Name)
		if prefix == castName {
			return Func{Arity: 1, Fn: func(args []any) (any, error) { return args[0], nil }}, nil
		}
		v, ok := r.evaluator.semantics[prefix]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPrimitive, d.Name)
		}
		return v, nil
	}
}
