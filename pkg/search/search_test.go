/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: search_test.go
Description: Tests for the priority queue and the heap and bucket enumerators.
*/

package search_test

import (
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/search"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plusGrammar derives int -> int programs over one, + and var0 up to depth 3
func plusGrammar(t *testing.T, weights map[string]float64, opts ...grammar.BuildOption) *grammar.ProbGrammar {
	t.Helper()
	d := dsl.New(map[string]typesys.Type{
		"one": typesys.INT,
		"+":   typesys.MustParse("int -> int -> int"),
	}, nil)
	table := grammar.Build(d, typesys.MustParse("int -> int"), 3, opts...)
	table.Clean()
	require.False(t, table.IsEmpty())
	if weights != nil {
		return grammar.FromWeights(table, weights)
	}
	return grammar.Uniform(table)
}

func drain(e search.Enumerator) []string {
	var out []string
	for {
		p, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, p.Key())
	}
}

// TestPriorityQueue tests heap ordering
func TestPriorityQueue(t *testing.T) {
	pq := search.NewPriorityQueue(func(a, b int) bool { return a < b })
	assert.True(t, pq.IsEmpty())

	for _, v := range []int{5, 1, 4, 2, 3, 1} {
		pq.Put(v)
		assert.True(t, pq.ValidateHeap())
	}
	assert.Equal(t, 6, pq.Size())

	top, ok := pq.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, top)

	var got []int
	for !pq.IsEmpty() {
		v, _ := pq.Get()
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 1, 2, 3, 4, 5}, got)

	_, ok = pq.Get()
	assert.False(t, ok)

	pq.Put(7)
	pq.Clear()
	assert.True(t, pq.IsEmpty())
}

// TestHeapSearchOrder tests that programs come out by non-increasing probability,
// each once, and that every derivable program is produced
func TestHeapSearchOrder(t *testing.T) {
	for name, weights := range map[string]map[string]float64{
		"uniform":  nil,
		"weighted": {"+": 3, "one": 0.5},
	} {
		t.Run(name, func(t *testing.T) {
			g := plusGrammar(t, weights)
			e := search.NewHeapSearch(g)

			seen := make(map[string]bool)
			last := 2.0
			count := 0
			for {
				p, ok := e.Next()
				if !ok {
					break
				}
				assert.False(t, seen[p.Key()], "duplicate %s", p)
				seen[p.Key()] = true

				prob := g.ProgramProbability(p)
				assert.Greater(t, prob, 0.0, "%s not derivable", p)
				assert.LessOrEqual(t, prob, last+1e-12, "%s out of order", p)
				last = prob
				count++
			}
			assert.Equal(t, g.Table().Size().Int64(), int64(count))
			assert.Equal(t, int64(37), int64(count))

			// exhausted enumerators stay exhausted
			_, ok := e.Next()
			assert.False(t, ok)
		})
	}
}

// TestHeapSearchFirst tests the most likely program is produced first
func TestHeapSearchFirst(t *testing.T) {
	g := plusGrammar(t, nil)
	p, ok := search.NewHeapSearch(g).Next()
	require.True(t, ok)
	assert.Equal(t, "one", p.String())
}

// TestBucketSearch tests completeness and uniqueness of bucketed enumeration
func TestBucketSearch(t *testing.T) {
	g := plusGrammar(t, map[string]float64{"+": 1, "one": 4})
	for _, size := range []int{1, 3, 10} {
		keys := drain(search.NewBucketSearch(g, size))
		assert.Len(t, keys, 37)

		unique := make(map[string]bool)
		for _, k := range keys {
			unique[k] = true
		}
		assert.Len(t, unique, 37)
	}
}

// TestBucketLess tests bucket comparison from the least likely bucket upward
func TestBucketLess(t *testing.T) {
	assert.True(t, search.Bucket{3, 0, 0}.Less(search.Bucket{0, 0, 1}))
	assert.False(t, search.Bucket{0, 0, 1}.Less(search.Bucket{3, 0, 0}))
	assert.True(t, search.Bucket{1, 1, 0}.Less(search.Bucket{0, 2, 0}))
	assert.False(t, search.Bucket{1, 1, 0}.Less(search.Bucket{1, 1, 0}))
	assert.Equal(t, "(1,0,2)", search.Bucket{1, 0, 2}.String())
}

// TestEmptyGrammar tests enumeration of a grammar without programs
func TestEmptyGrammar(t *testing.T) {
	d := dsl.New(map[string]typesys.Type{"one": typesys.INT}, nil)
	table := grammar.Build(d, typesys.MustParse("int -> bool"), 3)
	table.Clean()
	require.True(t, table.IsEmpty())

	g := grammar.Uniform(table)
	assert.Empty(t, drain(search.NewHeapSearch(g)))
	assert.Empty(t, drain(search.NewBucketSearch(g, 5)))
}

// TestNewFactory tests strategy selection by name
func TestNewFactory(t *testing.T) {
	assert.Equal(t, []string{"bucket_search", "heap_search"}, search.Strategies())

	for _, name := range []string{"", search.StrategyHeap, search.StrategyBucket} {
		f, err := search.NewFactory(name, 5)
		require.NoError(t, err)
		assert.Len(t, drain(f(plusGrammar(t, nil))), 37)
	}

	_, err := search.NewFactory("a_star", 5)
	assert.Error(t, err)
}
