/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: evaluator_test.go
Description: Unit tests for the DSL evaluator and the arithmetic DSL.
*/

package semantic_test

import (
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/semantic"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prim(name string) program.Derivable {
	return program.NewPrimitive(name, semantic.ArithSyntax()[name])
}

func instantiated(name, t string) program.Derivable {
	return program.NewPrimitive(name, typesys.MustParse(t))
}

// TestEvalArithmetic tests evaluation of nested applications with variables
func TestEvalArithmetic(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	x := program.NewVariable(0, typesys.INT)

	// (+ (* var0 two) one)
	p := program.Apply(prim("+"), program.Apply(prim("*"), x, prim("two")), prim("one"))
	out, err := e.Eval(p, []any{5})
	require.NoError(t, err)
	assert.Equal(t, 11, out)

	out, err = e.Eval(prim("two"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

// TestEvalLists tests list primitives and runtime failures
func TestEvalLists(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	xs := program.NewVariable(0, typesys.List(typesys.INT))

	out, err := e.Eval(program.Apply(prim("reverse"), xs), []any{[]any{1, 2, 3}})
	require.NoError(t, err)
	assert.True(t, semantic.Equal([]int{3, 2, 1}, out))

	out, err = e.Eval(program.Apply(prim("sum"), program.Apply(prim("cons"), prim("two"), xs)), []any{[]any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, out)

	_, err = e.Eval(program.Apply(prim("head"), prim("empty")), nil)
	assert.ErrorIs(t, err, semantic.ErrEmptyList)
}

// TestEvalHigherOrder tests partial application passed to map
func TestEvalHigherOrder(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	mapInt := instantiated("map", "(int -> int) -> list(int) -> list(int)")
	xs := program.NewVariable(0, typesys.List(typesys.INT))

	// (map (+ one) var0)
	p := program.Apply(mapInt, program.Apply(prim("+"), prim("one")), xs)
	out, err := e.Eval(p, []any{[]any{1, 2, 3}})
	require.NoError(t, err)
	assert.True(t, semantic.Equal([]any{2, 3, 4}, out))
}

// TestEvalDuplicatesAndCasts tests that decorated names share their original semantics
func TestEvalDuplicatesAndCasts(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	plus := instantiated("+@0", "int@0 -> int -> int")
	cast := instantiated("#cast@0", "int -> int@0")

	p := program.Apply(plus, program.Apply(cast, instantiated("one", "int")), instantiated("two@1", "int"))
	out, err := e.Eval(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	assert.Empty(t, e.Supports([]string{"+@0", "#cast@3", "one"}))
	assert.Equal(t, []string{"nope"}, e.Supports([]string{"one", "nope"}))
}

// TestEvalErrors tests unknown primitives, variables and constants
func TestEvalErrors(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())

	_, err := e.Eval(instantiated("nope", "int"), nil)
	assert.ErrorIs(t, err, semantic.ErrUnknownPrimitive)

	_, err = e.Eval(program.NewVariable(2, typesys.INT), []any{1})
	assert.ErrorIs(t, err, semantic.ErrVariable)

	c := program.NewConstant(typesys.INT)
	_, err = e.Eval(c, nil)
	assert.ErrorIs(t, err, semantic.ErrMissingConstant)

	out, err := e.EvalWithConstants(program.Apply(prim("+"), c, prim("one")), nil, map[string]any{"int": 41})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

// TestEvalSelf tests recursion through the self production and its limit
func TestEvalSelf(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics(), semantic.WithRecursionLimit(5))
	self := program.NewSelf(typesys.Arrow(typesys.INT, typesys.INT))
	x := program.NewVariable(0, typesys.INT)

	// f(x) = f(x + 1) never terminates
	p := program.Apply(self, program.Apply(prim("+"), x, prim("one")))
	_, err := e.Eval(p, []any{0})
	assert.ErrorIs(t, err, semantic.ErrRecursionLimit)
}

// TestCache tests cache hits and clearing
func TestCache(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	p := program.Apply(prim("+"), program.NewVariable(0, typesys.INT), prim("one"))

	assert.Zero(t, e.CacheHitRate())
	_, err := e.Eval(p, []any{1})
	require.NoError(t, err)
	_, err = e.Eval(p, []any{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, e.CacheHitRate(), 1e-9)

	e.ClearCache()
	_, err = e.Eval(p, []any{2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, e.CacheHitRate(), 1e-9)

	noCache := semantic.NewDSLEvaluator(semantic.ArithSemantics(), semantic.WithCacheSize(0))
	_, err = noCache.Eval(p, []any{1})
	require.NoError(t, err)
	assert.Zero(t, noCache.CacheHitRate())
}

// TestCacheKeys tests that inputs printing alike are cached apart
func TestCacheKeys(t *testing.T) {
	e := semantic.NewDSLEvaluator(semantic.Semantics{
		"count": semantic.Func{Arity: 1, Fn: func(args []any) (any, error) {
			return len(args[0].([]any)), nil
		}},
	})
	xs := program.NewVariable(0, typesys.List(typesys.STRING))
	count := program.Apply(instantiated("count", "list(string) -> int"), xs)

	out, err := e.Eval(count, []any{[]any{"a b"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	out, err = e.Eval(count, []any{[]any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	x := program.NewVariable(0, typesys.INT)
	out, err = e.Eval(x, []any{1})
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	out, err = e.Eval(x, []any{"1"})
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	c := program.NewConstant(typesys.INT)
	out, err = e.EvalWithConstants(c, nil, map[string]any{"int": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
	out, err = e.EvalWithConstants(c, nil, map[string]any{"int": 3.5})
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)
	assert.Zero(t, e.CacheHitRate())
}

// TestEqual tests numeric and list normalization
func TestEqual(t *testing.T) {
	assert.True(t, semantic.Equal(3, float64(3)))
	assert.True(t, semantic.Equal(int64(3), 3))
	assert.False(t, semantic.Equal(3, 3.5))
	assert.True(t, semantic.Equal([]any{1.0, 2.0}, []int{1, 2}))
	assert.False(t, semantic.Equal([]any{1}, []any{1, 2}))
	assert.True(t, semantic.Equal("a", "a"))
}
