/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ngram.go
Description: Bounded derivation history attached to non-terminals. An n-gram keeps
the last n-1 (production, argument index) steps leading to a position, so a bigram
remembers only the parent production.
*/

package grammar

import (
	"strconv"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/program"
)

// Step is a single derivation step: the argument slot argno of a production
type Step struct {
	Program program.Derivable
	Arg     int
}

func (s Step) key() string {
	return s.Program.Key() + "#" + strconv.Itoa(s.Arg)
}

// NGram is an immutable bounded history of steps, oldest first
type NGram struct {
	n     int
	steps []Step
	key   string
}

// NewNGram creates an empty history for an n-gram model
func NewNGram(n int) NGram {
	return NGram{n: n}
}

// N returns the order of the model
func (g NGram) N() int { return g.n }

// Len returns the number of retained steps
func (g NGram) Len() int { return len(g.steps) }

// Steps returns a copy of the retained steps
func (g NGram) Steps() []Step {
	out := make([]Step, len(g.steps))
	copy(out, g.steps)
	return out
}

// Last returns the most recent step
func (g NGram) Last() (Step, bool) {
	if len(g.steps) == 0 {
		return Step{}, false
	}
	return g.steps[len(g.steps)-1], true
}

// Successor returns the history advanced by step, truncated to n-1 steps
func (g NGram) Successor(step Step) NGram {
	keep := g.n - 1
	if keep <= 0 {
		return NGram{n: g.n}
	}

	steps := append(append([]Step{}, g.steps...), step)
	if len(steps) > keep {
		steps = steps[len(steps)-keep:]
	}

	keys := make([]string, len(steps))
	for i, s := range steps {
		keys[i] = s.key()
	}
	return NGram{n: g.n, steps: steps, key: strings.Join(keys, " ")}
}

// Key identifies the retained history
func (g NGram) Key() string { return g.key }

func (g NGram) String() string {
	parts := make([]string, len(g.steps))
	for i, s := range g.steps {
		parts[i] = s.Program.String() + "#" + strconv.Itoa(s.Arg)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
