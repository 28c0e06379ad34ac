/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sample.go
Description: Random program generation from a probabilistic grammar. Draws one
production per non-terminal according to its distribution, giving programs
distributed as the grammar predicts.
*/

package grammar

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kleascm/akaylee-synth/pkg/program"
)

// ErrNoProduction is returned when sampling reaches a non-terminal with no
// production of positive probability
var ErrNoProduction = errors.New("no production to sample")

// Sampler draws random programs from a probabilistic grammar. A Sampler is not
// safe for concurrent use.
type Sampler struct {
	grammar *ProbGrammar
	rng     *rand.Rand
}

// NewSampler creates a sampler; seed 0 seeds from the clock
func NewSampler(g *ProbGrammar, seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{grammar: g, rng: rand.New(rand.NewSource(seed))}
}

// Sample returns a program derived from the start symbol and its probability
func (s *Sampler) Sample() (program.Program, float64, error) {
	return s.sampleAt(s.grammar.table.Start())
}

// SampleN returns n sampled programs
func (s *Sampler) SampleN(n int) ([]program.Program, error) {
	out := make([]program.Program, 0, n)
	for i := 0; i < n; i++ {
		p, _, err := s.Sample()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Sampler) sampleAt(nt NonTerminal) (program.Program, float64, error) {
	prod, prob, ok := s.draw(nt)
	if !ok {
		return nil, 0, fmt.Errorf("%w at %s", ErrNoProduction, nt)
	}
	if len(prod.Args) == 0 {
		return prod.Program, prob, nil
	}

	args := make([]program.Program, len(prod.Args))
	for i, a := range prod.Args {
		arg, p, err := s.sampleAt(a)
		if err != nil {
			return nil, 0, err
		}
		args[i] = arg
		prob *= p
	}
	return program.Apply(prod.Program, args...), prob, nil
}

// draw picks a production of nt by inverse transform over its distribution
func (s *Sampler) draw(nt NonTerminal) (Production, float64, bool) {
	prods := s.grammar.table.Productions(nt)
	dist := s.grammar.probs[nt.Key()]

	total := 0.0
	for _, p := range prods {
		total += dist[p.Program.Key()]
	}
	if total <= 0 {
		return Production{}, 0, false
	}

	r := s.rng.Float64() * total
	last := -1
	for i, p := range prods {
		w := dist[p.Program.Key()]
		if w <= 0 {
			continue
		}
		last = i
		if r < w {
			return p, w, true
		}
		r -= w
	}
	// rounding left r past the final weight
	return prods[last], dist[prods[last].Program.Key()], true
}
