/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: heap_search.go
Description: Best-first enumeration of a probabilistic grammar. Every non-terminal
owns a heap of candidate programs; the successor of a program is computed lazily by
replacing one argument with its own successor, so programs come out in priority
order without materializing the program space.
*/

package search

import (
	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/program"
)

// Enumerator yields programs from most to least likely
type Enumerator interface {
	// Next returns the next program, false once the grammar is exhausted
	Next() (program.Program, bool)
}

// ranking turns production probabilities into comparable priorities
type ranking[R any] interface {
	leaf(p float64) R
	combine(p float64, children []R) R
	before(a, b R) bool
}

type candidate[R any] struct {
	prog program.Program
	rank R
}

// noSucc marks the successor of the empty program
const noSucc = ""

type heapEnumerator[R any] struct {
	g     *grammar.ProbGrammar
	table *grammar.RuleTable
	rank  ranking[R]

	heaps       map[grammar.Key]*PriorityQueue[candidate[R]]
	successors  map[grammar.Key]map[string]program.Program
	pushed      map[grammar.Key]map[string]bool
	ranks       map[grammar.Key]map[string]R
	initialized map[grammar.Key]bool

	current   program.Program
	exhausted bool
	count     int
}

func newHeapEnumerator[R any](g *grammar.ProbGrammar, rank ranking[R]) *heapEnumerator[R] {
	return &heapEnumerator[R]{
		g:           g,
		table:       g.Table(),
		rank:        rank,
		heaps:       make(map[grammar.Key]*PriorityQueue[candidate[R]]),
		successors:  make(map[grammar.Key]map[string]program.Program),
		pushed:      make(map[grammar.Key]map[string]bool),
		ranks:       make(map[grammar.Key]map[string]R),
		initialized: make(map[grammar.Key]bool),
	}
}

// Next returns the next program in priority order
func (e *heapEnumerator[R]) Next() (program.Program, bool) {
	if e.exhausted || e.table.IsEmpty() {
		e.exhausted = true
		return nil, false
	}
	next, ok := e.query(e.table.Start(), e.current)
	if !ok {
		e.exhausted = true
		return nil, false
	}
	e.current = next
	e.count++
	return next, true
}

// Count returns the number of programs produced so far
func (e *heapEnumerator[R]) Count() int { return e.count }

// init pushes, for every production of nt, the program built from the best
// program of each argument, then dequeues the best one
func (e *heapEnumerator[R]) init(nt grammar.NonTerminal) {
	key := nt.Key()
	if e.initialized[key] {
		return
	}
	e.initialized[key] = true

	queue := NewPriorityQueue(func(a, b candidate[R]) bool { return e.rank.before(a.rank, b.rank) })
	e.heaps[key] = queue
	e.successors[key] = make(map[string]program.Program)
	e.pushed[key] = make(map[string]bool)
	e.ranks[key] = make(map[string]R)

	for _, prod := range e.table.Productions(nt) {
		args := make([]program.Program, len(prod.Args))
		complete := true
		for i, argNT := range prod.Args {
			e.init(argNT)
			best, ok := e.query(argNT, nil)
			if !ok {
				complete = false
				break
			}
			args[i] = best
		}
		if !complete {
			continue
		}
		e.push(nt, program.Apply(prod.Program, args...), prod)
	}

	e.query(nt, nil)
}

// push ranks prog at nt and queues it unless it was queued before
func (e *heapEnumerator[R]) push(nt grammar.NonTerminal, prog program.Program, prod grammar.Production) {
	key := nt.Key()
	pk := prog.Key()
	if e.pushed[key][pk] {
		return
	}

	p := e.g.Probability(nt, prod.Program)
	var r R
	if f, ok := prog.(*program.Function); ok {
		children := make([]R, len(f.Args))
		for i, arg := range f.Args {
			children[i] = e.ranks[prod.Args[i].Key()][arg.Key()]
		}
		r = e.rank.combine(p, children)
	} else {
		r = e.rank.leaf(p)
	}

	e.pushed[key][pk] = true
	e.ranks[key][pk] = r
	e.heaps[key].Put(candidate[R]{prog: prog, rank: r})
}

// query returns the program following prev at nt (the best one for a nil prev)
func (e *heapEnumerator[R]) query(nt grammar.NonTerminal, prev program.Program) (program.Program, bool) {
	key := nt.Key()
	if !e.initialized[key] {
		e.init(nt)
	}

	prevKey := noSucc
	if prev != nil {
		prevKey = prev.Key()
	}
	if succ, ok := e.successors[key][prevKey]; ok {
		return succ, succ != nil
	}

	c, ok := e.heaps[key].Get()
	if !ok {
		e.successors[key][prevKey] = nil
		return nil, false
	}
	e.successors[key][prevKey] = c.prog

	// Queue the successors of c: one argument advanced at a time
	if f, isFunc := c.prog.(*program.Function); isFunc {
		rule, _ := e.table.Rule(nt)
		prod, _ := rule.Get(f.Head.Key())
		for i, argNT := range prod.Args {
			next, ok := e.query(argNT, f.Args[i])
			if !ok {
				continue
			}
			e.push(nt, f.WithArg(i, next), prod)
		}
	}

	return c.prog, true
}

// probabilityRanking ranks by product of production probabilities
type probabilityRanking struct{}

func (probabilityRanking) leaf(p float64) float64 { return p }

func (probabilityRanking) combine(p float64, children []float64) float64 {
	for _, c := range children {
		p *= c
	}
	return p
}

func (probabilityRanking) before(a, b float64) bool { return a > b }

// NewHeapSearch enumerates g in decreasing program probability
func NewHeapSearch(g *grammar.ProbGrammar) Enumerator {
	return newHeapEnumerator[float64](g, probabilityRanking{})
}
