/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder_test.go
Description: Tests for grammar construction and analysis: typing of productions,
exact size against brute force enumeration, cleaning, forbidden successors,
recursion and polymorphic instantiation.
*/

package grammar_test

import (
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arithDSL() map[string]typesys.Type {
	return map[string]typesys.Type{
		"one":  typesys.INT,
		"+":    typesys.MustParse("int -> int -> int"),
		"len":  typesys.MustParse("list(int) -> int"),
		"cons": typesys.MustParse("int -> list(int) -> list(int)"),
	}
}

// derive expands every program of nt by brute force over the rule table
func derive(table *grammar.RuleTable, nt grammar.NonTerminal) []program.Program {
	var out []program.Program
	for _, prod := range table.Productions(nt) {
		combos := [][]program.Program{{}}
		for _, arg := range prod.Args {
			sub := derive(table, arg)
			var next [][]program.Program
			for _, c := range combos {
				for _, s := range sub {
					next = append(next, append(append([]program.Program{}, c...), s))
				}
			}
			combos = next
		}
		for _, c := range combos {
			out = append(out, program.Apply(prod.Program, c...))
		}
	}
	return out
}

// generate enumerates well typed programs directly from the primitives, with
// the same depth conventions as the builder but without any grammar
func generate(prims []program.Derivable, vars []program.Derivable, target typesys.Type, depth, maxDepth, floor int) map[string]bool {
	out := make(map[string]bool)
	if depth >= maxDepth {
		return out
	}
	heads := append([]program.Derivable{}, prims...)
	if depth >= floor {
		heads = append(heads, vars...)
	}
	for _, h := range heads {
		args, ok := typesys.EndsWith(h.Typ, target)
		if !ok {
			continue
		}
		if len(args) > 0 && depth >= maxDepth-1 {
			continue
		}
		combos := []string{""}
		for _, a := range args {
			sub := generate(prims, vars, a, depth+1, maxDepth, floor)
			var next []string
			for _, c := range combos {
				for s := range sub {
					next = append(next, c+" "+s)
				}
			}
			combos = next
		}
		for _, c := range combos {
			out["("+h.Key()+c+")"] = true
		}
	}
	return out
}

func buildTable(t *testing.T, syntax map[string]typesys.Type, tr string, depth int, opts ...grammar.BuildOption) *grammar.RuleTable {
	t.Helper()
	table := grammar.Build(dsl.New(syntax, nil), typesys.MustParse(tr), depth, opts...)
	table.Clean()
	return table
}

// TestProductionTyping tests that every production is well typed
func TestProductionTyping(t *testing.T) {
	table := buildTable(t, arithDSL(), "list(int) -> int -> int", 4)
	require.False(t, table.IsEmpty())

	for _, nt := range table.NonTerminals() {
		assert.Less(t, nt.Depth, 4)
		for _, prod := range table.Productions(nt) {
			args, ok := typesys.EndsWith(prod.Program.Typ, nt.Type)
			require.True(t, ok, "%s cannot produce %s", prod.Program, nt.Type)
			require.Len(t, prod.Args, len(args))
			for i, arg := range prod.Args {
				assert.True(t, typesys.Equal(args[i], arg.Type))
				assert.Equal(t, nt.Depth+1, arg.Depth)
				assert.True(t, table.Has(arg), "dangling %s", arg)
			}
		}
	}
}

// TestSizeMatchesBruteForce tests Size against two independent enumerations
func TestSizeMatchesBruteForce(t *testing.T) {
	tr := typesys.MustParse("list(int) -> int -> int")
	for depth := 1; depth <= 4; depth++ {
		for _, floor := range []int{0, 1} {
			table := buildTable(t, arithDSL(), tr.String(), depth, grammar.MinVariableDepth(floor))

			programs := derive(table, table.Start())
			unique := make(map[string]bool)
			for _, p := range programs {
				unique[p.Key()] = true
			}
			assert.Len(t, unique, len(programs), "depth %d: duplicate derivations", depth)
			assert.Equal(t, int64(len(programs)), table.Size().Int64(), "depth %d floor %d", depth, floor)

			var prims, vars []program.Derivable
			d := dsl.New(arithDSL(), nil)
			prims = d.ListPrimitives()
			for i, a := range typesys.Arguments(tr) {
				vars = append(vars, program.NewVariable(i, a))
			}
			direct := generate(prims, vars, typesys.Returns(tr), 0, depth, floor)
			assert.Equal(t, int64(len(direct)), table.Size().Int64(), "depth %d floor %d", depth, floor)
		}
	}
}

// TestCleanIdempotent tests that cleaning a clean table changes nothing
func TestCleanIdempotent(t *testing.T) {
	table := buildTable(t, arithDSL(), "int -> int", 4)
	before := table.String()
	size := table.Size()

	table.Clean()
	assert.Equal(t, before, table.String())
	assert.Equal(t, 0, size.Cmp(table.Size()))
}

// TestCleanReachableAndProductive tests the invariants of a cleaned table
func TestCleanReachableAndProductive(t *testing.T) {
	raw := grammar.Build(dsl.New(arithDSL(), nil), typesys.MustParse("int -> int"), 4)
	rawSize := raw.Size()
	rawLen := raw.Len()

	raw.Clean()
	assert.Equal(t, 0, rawSize.Cmp(raw.Size()), "cleaning preserves the program count")
	assert.Less(t, raw.Len(), rawLen)

	reachable := map[grammar.Key]bool{raw.Start().Key(): true}
	frontier := []grammar.NonTerminal{raw.Start()}
	for len(frontier) > 0 {
		nt := frontier[0]
		frontier = frontier[1:]
		for _, p := range raw.Productions(nt) {
			for _, a := range p.Args {
				if !reachable[a.Key()] {
					reachable[a.Key()] = true
					frontier = append(frontier, a)
				}
			}
		}
	}
	for _, nt := range raw.NonTerminals() {
		assert.True(t, reachable[nt.Key()], "%s unreachable", nt)
		assert.NotEmpty(t, raw.Productions(nt), "%s unproductive", nt)
	}
}

// TestMaxDepth tests the depth bound reported by the table
func TestMaxDepth(t *testing.T) {
	for depth := 1; depth <= 4; depth++ {
		table := buildTable(t, arithDSL(), "int -> int", depth)
		assert.Equal(t, depth, table.MaxDepth())
	}
}

// TestForbiddenSuccessor tests that a forbidden pattern removes the successor
// everywhere, leaves included
func TestForbiddenSuccessor(t *testing.T) {
	syntax := map[string]typesys.Type{
		"a": typesys.INT,
		"c": typesys.INT,
		"b": typesys.MustParse("int -> int"),
	}
	forbidden := make(dsl.Forbidden)
	forbidden.Add("b", 0, "a")

	table := grammar.Build(dsl.New(syntax, forbidden), typesys.INT, 4)
	table.Clean()

	programs := derive(table, table.Start())
	var shown []string
	for _, p := range programs {
		shown = append(shown, p.String())
		program.Walk(p, func(q program.Program) {
			f, ok := q.(*program.Function)
			if !ok || f.Head.Name != "b" {
				return
			}
			arg, ok := f.Args[0].(program.Derivable)
			assert.False(t, ok && arg.Name == "a", "a under b in %s", p)
		})
	}
	assert.ElementsMatch(t, []string{"a", "c", "(b c)", "(b (b c))", "(b (b (b c)))"}, shown)
	assert.Equal(t, int64(5), table.Size().Int64())
}

// TestRecursive tests the synthetic self production
func TestRecursive(t *testing.T) {
	plain := buildTable(t, arithDSL(), "int -> int", 3)
	rec := buildTable(t, arithDSL(), "int -> int", 3, grammar.Recursive(true))

	found := false
	for _, nt := range rec.NonTerminals() {
		for _, p := range rec.Productions(nt) {
			if p.Program.Kind == program.KindSelf {
				found = true
				assert.Equal(t, "int -> int", p.Program.Typ.String())
				assert.Len(t, p.Args, 1)
			}
		}
	}
	assert.True(t, found)
	assert.Equal(t, 1, rec.Size().Cmp(plain.Size()))
}

// TestConstants tests constant productions under the variable depth floor
func TestConstants(t *testing.T) {
	table := buildTable(t, arithDSL(), "int -> int", 3, grammar.ConstantTypes(typesys.INT))
	for _, nt := range table.NonTerminals() {
		for _, p := range table.Productions(nt) {
			if p.Program.Kind == program.KindConstant {
				assert.GreaterOrEqual(t, nt.Depth, 1)
				assert.True(t, typesys.Equal(typesys.INT, nt.Type))
			}
		}
	}
	withConst := table.Size()
	assert.Equal(t, 1, withConst.Cmp(buildTable(t, arithDSL(), "int -> int", 3).Size()))
}

// TestPolymorphicInstantiation tests that no polymorphic type reaches the table
func TestPolymorphicInstantiation(t *testing.T) {
	syntax := arithDSL()
	syntax["map"] = typesys.MustParse("('a -> 'b) -> list('a) -> list('b)")
	syntax["inc"] = typesys.MustParse("int -> int")

	table := buildTable(t, syntax, "list(int) -> list(int)", 3)
	require.False(t, table.IsEmpty())

	usesMap := false
	for _, nt := range table.NonTerminals() {
		assert.False(t, typesys.IsPolymorphic(nt.Type))
		for _, p := range table.Productions(nt) {
			assert.False(t, typesys.IsPolymorphic(p.Program.Typ), "%s", p.Program.Typ)
			usesMap = usesMap || p.Program.Name == "map"
		}
	}
	assert.True(t, usesMap)
}

// TestEmptyGrammar tests analysis of a table deriving nothing
func TestEmptyGrammar(t *testing.T) {
	table := buildTable(t, arithDSL(), "int -> bool", 4)
	assert.True(t, table.IsEmpty())
	assert.Zero(t, table.Size().Sign())
	assert.Zero(t, table.MaxDepth())
	assert.Zero(t, table.Len())

	zero := buildTable(t, arithDSL(), "int", 0)
	assert.True(t, zero.IsEmpty())
}

// TestNGram tests history truncation
func TestNGram(t *testing.T) {
	plus := program.NewPrimitive("+", typesys.MustParse("int -> int -> int"))
	one := program.NewPrimitive("one", typesys.INT)

	g := grammar.NewNGram(3)
	_, ok := g.Last()
	assert.False(t, ok)

	g = g.Successor(grammar.Step{Program: plus, Arg: 0})
	g = g.Successor(grammar.Step{Program: plus, Arg: 1})
	g = g.Successor(grammar.Step{Program: one, Arg: 0})
	assert.Equal(t, 2, g.Len())
	last, ok := g.Last()
	require.True(t, ok)
	assert.Equal(t, "one", last.Program.Name)
	assert.Equal(t, "[+#1, one#0]", g.String())

	unigram := grammar.NewNGram(1).Successor(grammar.Step{Program: plus})
	assert.Zero(t, unigram.Len())
	assert.Equal(t, grammar.NewNGram(1).Key(), unigram.Key())
}
