/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dsl_test.go
Description: Unit tests for DSL construction, polymorphic instantiation and
forbidden pattern materialization.
*/

package dsl_test

import (
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPrefix checks the duplicate naming convention
func TestPrefix(t *testing.T) {
	assert.Equal(t, "zero", dsl.Prefix("zero"))
	assert.Equal(t, "zero", dsl.Prefix("zero@3"))
	assert.Equal(t, "@self", dsl.Prefix("@self"))
	assert.True(t, dsl.IsDuplicate("f@0"))
	assert.False(t, dsl.IsDuplicate("f"))
}

// TestListPrimitivesOrdered checks the stable primitive order
func TestListPrimitivesOrdered(t *testing.T) {
	d := dsl.New(map[string]typesys.Type{
		"succ": typesys.Arrow(typesys.INT, typesys.INT),
		"one":  typesys.INT,
		"add":  typesys.Function(typesys.INT, typesys.INT, typesys.INT),
	}, nil)

	var names []string
	for _, p := range d.ListPrimitives() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"add", "one", "succ"}, names)
	assert.Empty(t, d.ForbiddenPatterns())
}

// TestInstantiatePolymorphicTypes checks bounded and idempotent instantiation
func TestInstantiatePolymorphicTypes(t *testing.T) {
	a := typesys.Polymorphic("a")
	d := dsl.New(map[string]typesys.Type{
		"head": typesys.Arrow(typesys.List(a), a),
		"one":  typesys.INT,
	}, nil)

	d.InstantiatePolymorphicTypes(3)
	heads := d.Lookup("head")
	require.Len(t, heads, 1)
	assert.Equal(t, "list(int) -> int", heads[0].Typ.String())

	// Second call changes nothing even with a larger bound
	d.InstantiatePolymorphicTypes(10)
	assert.Len(t, d.Lookup("head"), 1)
	assert.Len(t, d.ListPrimitives(), 2)
}

// TestInstantiateForbidden checks propagation to duplicated names
func TestInstantiateForbidden(t *testing.T) {
	forbidden := dsl.Forbidden{}
	forbidden.Add("b", 0, "a")

	d := dsl.New(map[string]typesys.Type{
		"a":   typesys.INT,
		"a@0": typesys.INT,
		"b":   typesys.Arrow(typesys.INT, typesys.INT),
		"b@1": typesys.Arrow(typesys.INT, typesys.INT),
	}, forbidden)

	d.InstantiateForbidden()
	f := d.ForbiddenPatterns()

	for _, parent := range []string{"b", "b@1"} {
		assert.True(t, f.IsForbidden(parent, 0, "a"), parent)
		assert.True(t, f.IsForbidden(parent, 0, "a@0"), parent)
		assert.False(t, f.IsForbidden(parent, 1, "a"), parent)
	}

	before := f.String()
	d.InstantiateForbidden()
	assert.Equal(t, before, d.ForbiddenPatterns().String())

	// The caller's table is not aliased
	assert.Len(t, forbidden, 1)
	assert.False(t, forbidden.IsForbidden("b", 0, "a@0"))
}
