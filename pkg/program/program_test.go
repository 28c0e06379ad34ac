/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: program_test.go
Description: Unit tests for program construction, rendering, keys and traversal.
*/

package program_test

import (
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plus = program.NewPrimitive("+", typesys.Function(typesys.INT, typesys.INT, typesys.INT))

// TestApply checks typing, depth and rendering of applications
func TestApply(t *testing.T) {
	one := program.NewPrimitive("one", typesys.INT)
	x := program.NewVariable(0, typesys.INT)

	inner := program.Apply(plus, one, x)
	outer := program.Apply(plus, inner, one)

	assert.Equal(t, "(+ one var0)", inner.String())
	assert.Equal(t, "(+ (+ one var0) one)", outer.String())
	assert.Equal(t, 2, inner.Depth())
	assert.Equal(t, 3, outer.Depth())
	assert.Equal(t, "int", outer.Type().String())
	assert.Equal(t, 5, program.Size(outer))

	// Partial application keeps an arrow type
	partial := program.Apply(plus, one)
	assert.Equal(t, "int -> int", partial.Type().String())

	// No arguments: the head itself
	assert.Equal(t, program.Program(one), program.Apply(one))
}

// TestApplyTooManyArgs checks the arity guard
func TestApplyTooManyArgs(t *testing.T) {
	one := program.NewPrimitive("one", typesys.INT)
	assert.Panics(t, func() { program.Apply(one, one) })
}

// TestKeysDistinguishDuplicates checks that same-name primitives with different types differ
func TestKeysDistinguishDuplicates(t *testing.T) {
	a := program.NewPrimitive("zero", typesys.INT)
	b := program.NewPrimitive("zero", typesys.Primitive("int@0"))

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(program.NewPrimitive("zero", typesys.INT)))

	v := program.NewVariable(0, typesys.INT)
	c := program.NewConstant(typesys.INT)
	s := program.NewSelf(typesys.Arrow(typesys.INT, typesys.INT))
	keys := map[string]bool{a.Key(): true, v.Key(): true, c.Key(): true, s.Key(): true}
	assert.Len(t, keys, 4)
	assert.Equal(t, "@self", s.String())
	assert.Equal(t, "<int>", c.String())
}

// TestWithArg checks argument replacement and kind detection
func TestWithArg(t *testing.T) {
	one := program.NewPrimitive("one", typesys.INT)
	x := program.NewVariable(0, typesys.INT)

	p := program.Apply(plus, one, one)
	f, ok := p.(*program.Function)
	require.True(t, ok)

	q := f.WithArg(1, x)
	assert.Equal(t, "(+ one var0)", q.String())
	assert.Equal(t, "(+ one one)", p.String())

	assert.True(t, program.UsesKind(q, program.KindVariable))
	assert.False(t, program.UsesKind(p, program.KindVariable))
	assert.False(t, program.UsesKind(q, program.KindConstant))
}
