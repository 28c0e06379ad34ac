/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types_test.go
Description: Unit tests for type construction, arrow helpers, unification,
polymorphic instantiation and the textual type parser.
*/

package typesys_test

import (
	"errors"
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanonicalStrings checks the canonical rendering used for equality
func TestCanonicalStrings(t *testing.T) {
	a := typesys.Polymorphic("a")
	f := typesys.Function(typesys.Arrow(a, typesys.INT), typesys.List(a), typesys.List(typesys.INT))

	assert.Equal(t, "('a -> int) -> list('a) -> list(int)", f.String())
	assert.Equal(t, "int", typesys.Function(typesys.INT).String())
	assert.True(t, typesys.Equal(typesys.List(typesys.INT), typesys.List(typesys.Primitive("int"))))
	assert.False(t, typesys.Equal(typesys.INT, typesys.BOOL))
}

// TestSize checks the structural size definition
func TestSize(t *testing.T) {
	assert.Equal(t, 1, typesys.INT.Size())
	assert.Equal(t, 1, typesys.Polymorphic("a").Size())
	assert.Equal(t, 3, typesys.List(typesys.List(typesys.INT)).Size())
	assert.Equal(t, 4, typesys.Function(typesys.INT, typesys.List(typesys.INT), typesys.BOOL).Size())
}

// TestArrowHelpers checks Returns, Arguments, Arity and WithArgument
func TestArrowHelpers(t *testing.T) {
	f := typesys.Function(typesys.INT, typesys.BOOL, typesys.STRING)

	assert.Equal(t, typesys.STRING, typesys.Returns(f))
	assert.Equal(t, []typesys.Type{typesys.INT, typesys.BOOL}, typesys.Arguments(f))
	assert.Equal(t, 2, typesys.Arity(f))
	assert.Equal(t, 0, typesys.Arity(typesys.INT))

	g, ok := typesys.WithArgument(f, 1, typesys.INT)
	require.True(t, ok)
	assert.Equal(t, "int -> int -> string", g.String())

	_, ok = typesys.WithArgument(f, 2, typesys.INT)
	assert.False(t, ok)

	assert.Equal(t, "int -> bool -> int", typesys.WithReturn(f, typesys.INT).String())
}

// TestEndsWith checks the "can this produce the requested type" test
func TestEndsWith(t *testing.T) {
	f := typesys.Function(typesys.INT, typesys.BOOL, typesys.STRING)

	args, ok := typesys.EndsWith(f, typesys.STRING)
	require.True(t, ok)
	assert.Equal(t, []typesys.Type{typesys.INT, typesys.BOOL}, args)

	args, ok = typesys.EndsWith(f, typesys.Arrow(typesys.BOOL, typesys.STRING))
	require.True(t, ok)
	assert.Equal(t, []typesys.Type{typesys.INT}, args)

	args, ok = typesys.EndsWith(typesys.INT, typesys.INT)
	require.True(t, ok)
	assert.Empty(t, args)

	_, ok = typesys.EndsWith(f, typesys.INT)
	assert.False(t, ok)
}

// TestUnify checks unification and the occurs check
func TestUnify(t *testing.T) {
	a := typesys.Polymorphic("a")
	b := typesys.Polymorphic("b")

	s, err := typesys.Unify(typesys.Arrow(a, typesys.List(b)), typesys.Arrow(typesys.INT, typesys.List(typesys.BOOL)))
	require.NoError(t, err)
	assert.Equal(t, "int", s.Apply(a).String())
	assert.Equal(t, "bool", s.Apply(b).String())

	assert.True(t, typesys.Matches(typesys.List(a), typesys.List(typesys.INT)))
	assert.False(t, typesys.Matches(typesys.Arrow(a, a), typesys.Arrow(typesys.INT, typesys.BOOL)))
	assert.False(t, typesys.Matches(a, typesys.List(a)))
	assert.False(t, typesys.Matches(typesys.INT, typesys.List(typesys.INT)))
}

// TestInstantiate checks bounded ground instantiation
func TestInstantiate(t *testing.T) {
	candidates := typesys.GroundTypes([]typesys.Type{typesys.INT, typesys.BOOL})
	a := typesys.Polymorphic("a")

	// list('a) -> 'a : size 3 for basic, 5 for list(x), 7 for list(list(x))
	poly := typesys.Arrow(typesys.List(a), a)

	small := typesys.Instantiate(poly, candidates, 3)
	assert.Len(t, small, 2)
	for _, inst := range small {
		assert.False(t, typesys.IsPolymorphic(inst))
		assert.LessOrEqual(t, inst.Size(), 3)
	}

	// int, bool, list(int), list(bool) and the four arrows between basics
	larger := typesys.Instantiate(poly, candidates, 5)
	assert.Len(t, larger, 8)

	// Monomorphic types are returned unchanged whatever the bound
	mono := typesys.Instantiate(typesys.INT, candidates, 0)
	assert.Equal(t, []typesys.Type{typesys.INT}, mono)

	// Nothing fits: silently empty
	assert.Empty(t, typesys.Instantiate(poly, candidates, 2))
}

// TestGroundTypes checks the candidate set composition
func TestGroundTypes(t *testing.T) {
	ground := typesys.GroundTypes([]typesys.Type{typesys.INT})
	var names []string
	for _, g := range ground {
		names = append(names, g.String())
	}
	assert.Equal(t, []string{"int", "int -> int", "list(int)", "list(list(int))"}, names)
}

// TestParse checks the textual type syntax
func TestParse(t *testing.T) {
	cases := map[string]string{
		"int":                                "int",
		"int -> int -> int":                  "int -> int -> int",
		"(int -> int) -> int":                "(int -> int) -> int",
		"list(int)":                          "list(int)",
		"  list( list(int) ) -> 'a ":         "list(list(int)) -> 'a",
		"('a -> 'b) -> list('a) -> list('b)": "('a -> 'b) -> list('a) -> list('b)",
		"int@0 -> int":                       "int@0 -> int",
	}
	for in, want := range cases {
		got, err := typesys.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

// TestParseErrors checks that malformed input reports ErrParse
func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "int ->", "(int", "list(int", "'", "int)", "->"} {
		_, err := typesys.Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, typesys.ErrParse), in)
	}
}
