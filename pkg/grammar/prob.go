/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prob.go
Description: Probabilistic grammar over a cleaned rule table. Each non-terminal
carries a distribution over its productions, obtained from a Predictor (an
external model, a weight table or the uniform distribution).
*/

package grammar

import (
	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/program"
)

// Predictor assigns a non-negative weight to a production at a non-terminal
type Predictor interface {
	Weight(nt NonTerminal, p program.Derivable) float64
}

// PredictorFunc adapts a function to Predictor
type PredictorFunc func(nt NonTerminal, p program.Derivable) float64

// Weight calls f
func (f PredictorFunc) Weight(nt NonTerminal, p program.Derivable) float64 { return f(nt, p) }

// ProbOption configures probability assignment
type ProbOption func(*probOptions)

type probOptions struct {
	variableProbability float64 // total mass of variables per non-terminal, 0 disables
}

// VariableProbability reserves mass p for variable productions at every
// non-terminal offering both variables and other productions
func VariableProbability(p float64) ProbOption {
	return func(o *probOptions) { o.variableProbability = p }
}

// ProbGrammar is a rule table with a distribution per non-terminal
type ProbGrammar struct {
	table *RuleTable
	probs map[Key]map[string]float64
}

// Uniform gives every production of a non-terminal the same probability
func Uniform(t *RuleTable, opts ...ProbOption) *ProbGrammar {
	return FromPredictor(t, PredictorFunc(func(NonTerminal, program.Derivable) float64 { return 1 }), opts...)
}

// FromWeights weights productions by the surface name of their head primitive.
// Variables, constants, self calls and unlisted primitives weigh 1.
func FromWeights(t *RuleTable, weights map[string]float64, opts ...ProbOption) *ProbGrammar {
	return FromPredictor(t, PredictorFunc(func(_ NonTerminal, p program.Derivable) float64 {
		if p.Kind != program.KindPrimitive {
			return 1
		}
		if w, ok := weights[dsl.Prefix(p.Name)]; ok {
			return w
		}
		return 1
	}), opts...)
}

// FromPredictor normalizes the predictor weights per non-terminal. A
// non-terminal whose weights sum to zero falls back to uniform.
func FromPredictor(t *RuleTable, pred Predictor, opts ...ProbOption) *ProbGrammar {
	var o probOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := &ProbGrammar{table: t, probs: make(map[Key]map[string]float64, t.Len())}
	for _, nt := range t.NonTerminals() {
		prods := t.Productions(nt)
		weights := make([]float64, len(prods))
		for i, p := range prods {
			weights[i] = max(0, pred.Weight(nt, p.Program))
		}

		isVar := func(i int) bool { return prods[i].Program.Kind == program.KindVariable }
		nvars := 0
		for i := range prods {
			if isVar(i) {
				nvars++
			}
		}

		dist := make(map[string]float64, len(prods))
		if o.variableProbability > 0 && nvars > 0 && nvars < len(prods) {
			others := normalize(weights, func(i int) bool { return !isVar(i) })
			for i, p := range prods {
				if isVar(i) {
					dist[p.Program.Key()] = o.variableProbability / float64(nvars)
				} else {
					dist[p.Program.Key()] = others[i] * (1 - o.variableProbability)
				}
			}
		} else {
			all := normalize(weights, func(int) bool { return true })
			for i, p := range prods {
				dist[p.Program.Key()] = all[i]
			}
		}
		g.probs[nt.Key()] = dist
	}
	return g
}

// normalize rescales the selected weights to sum to one; others are zero
func normalize(weights []float64, selected func(int) bool) []float64 {
	out := make([]float64, len(weights))
	total, n := 0.0, 0
	for i, w := range weights {
		if selected(i) {
			total += w
			n++
		}
	}
	for i, w := range weights {
		if !selected(i) {
			continue
		}
		if total > 0 {
			out[i] = w / total
		} else {
			out[i] = 1 / float64(n)
		}
	}
	return out
}

// Table returns the underlying rule table
func (g *ProbGrammar) Table() *RuleTable { return g.table }

// Probability returns the probability of head p at nt
func (g *ProbGrammar) Probability(nt NonTerminal, p program.Derivable) float64 {
	return g.probs[nt.Key()][p.Key()]
}

// ProgramProbability returns the probability of deriving prog from the start
// symbol, 0 when the grammar cannot derive it
func (g *ProbGrammar) ProgramProbability(prog program.Program) float64 {
	return g.probabilityAt(g.table.Start(), prog)
}

func (g *ProbGrammar) probabilityAt(nt NonTerminal, prog program.Program) float64 {
	rule, ok := g.table.Rule(nt)
	if !ok {
		return 0
	}

	var head program.Derivable
	var args []program.Program
	switch v := prog.(type) {
	case program.Derivable:
		head = v
	case *program.Function:
		head, args = v.Head, v.Args
	default:
		return 0
	}

	prod, ok := rule.Get(head.Key())
	if !ok || len(prod.Args) != len(args) {
		return 0
	}

	p := g.Probability(nt, head)
	for i, arg := range args {
		if p == 0 {
			return 0
		}
		p *= g.probabilityAt(prod.Args[i], arg)
	}
	return p
}
