/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: synthesizer.go
Description: The synthesis loop. Programs are enumerated from a probabilistic
grammar, filtered by pruners and run on every example of a task until one
matches, the enumeration is exhausted, the timeout elapses or the context is
cancelled. Elapsed time is polled once per candidate.
*/

package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/pruning"
	"github.com/kleascm/akaylee-synth/pkg/semantic"
	"github.com/kleascm/akaylee-synth/pkg/task"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

var ErrTimeout = errors.New("synthesis timed out")

// Result is the outcome of one task
type Result struct {
	ID          string
	TaskID      string
	TaskName    string
	Solved      bool
	TimedOut    bool
	Program     program.Program
	Probability float64
	Tried       int64
	Elapsed     time.Duration
	Strategy    string
}

// Err returns ErrTimeout when the search was stopped by the timeout
func (r *Result) Err() error {
	if r.TimedOut {
		return ErrTimeout
	}
	return nil
}

// SynthOption configures a Synthesizer
type SynthOption func(*Synthesizer)

// WithTimeout bounds the time spent per task, 0 disables the bound
func WithTimeout(d time.Duration) SynthOption {
	return func(s *Synthesizer) { s.timeout = d }
}

// WithMaxPrograms bounds the candidates evaluated per task, 0 disables the bound
func WithMaxPrograms(n int64) SynthOption {
	return func(s *Synthesizer) { s.maxPrograms = n }
}

// WithStrategy selects the enumeration strategy
func WithStrategy(name string, factory Factory) SynthOption {
	return func(s *Synthesizer) {
		s.strategy = name
		s.factory = factory
	}
}

// WithPruner adds a pruner
func WithPruner(p pruning.Pruner) SynthOption {
	return func(s *Synthesizer) { s.pruner.Add(p) }
}

// WithRequireVariables rejects programs ignoring every argument of the task's
// type request
func WithRequireVariables(enabled bool) SynthOption {
	return func(s *Synthesizer) { s.requireVars = enabled }
}

// WithReporter adds a reporter
func WithReporter(r Reporter) SynthOption {
	return func(s *Synthesizer) { s.reporters = append(s.reporters, r) }
}

// WithStats shares a statistics collector between synthesizers
func WithStats(stats *Stats) SynthOption {
	return func(s *Synthesizer) { s.stats = stats }
}

// WithSynthLogger sets the logger
func WithSynthLogger(l logrus.FieldLogger) SynthOption {
	return func(s *Synthesizer) { s.logger = l }
}

// Synthesizer searches programs matching task examples
type Synthesizer struct {
	evaluator   semantic.Evaluator
	factory     Factory
	strategy    string
	pruner      *pruning.Union
	requireVars bool
	timeout     time.Duration
	maxPrograms int64
	stats       *Stats
	reporters   multiReporter
	logger      logrus.FieldLogger
}

// NewSynthesizer creates a synthesizer using heap search by default
func NewSynthesizer(evaluator semantic.Evaluator, opts ...SynthOption) *Synthesizer {
	silent := logrus.New()
	silent.SetLevel(logrus.PanicLevel)

	s := &Synthesizer{
		evaluator: evaluator,
		factory:   NewHeapSearch,
		strategy:  StrategyHeap,
		pruner:    pruning.NewUnion(),
		timeout:   60 * time.Second,
		stats:     NewStats(),
		logger:    silent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the statistics collector
func (s *Synthesizer) Stats() *Stats { return s.stats }

// Solve searches g for a program consistent with every example of t. A cancelled
// context stops the search and is returned alongside the partial result.
func (s *Synthesizer) Solve(ctx context.Context, t *task.Task, g *grammar.ProbGrammar) (*Result, error) {
	start := time.Now()
	res := &Result{
		ID:       uuid.NewString(),
		TaskID:   t.ID,
		TaskName: t.Name,
		Strategy: s.strategy,
	}
	s.stats.IncrementTasks()

	logger := s.logger.WithFields(logrus.Fields{"task": t.ID, "strategy": s.strategy})
	logger.Debug("Search started")

	assignments := t.ConstantAssignments()
	enum := s.factory(g)

	var pruner pruning.Pruner = s.pruner
	if s.requireVars {
		pruner = pruning.NewUnion(s.pruner, pruning.RequireVariables(typesys.Arity(t.TypeRequest)))
	}

	var err error
	for {
		if err = ctx.Err(); err != nil {
			break
		}
		if s.timeout > 0 && time.Since(start) >= s.timeout {
			res.TimedOut = true
			s.stats.IncrementTimeouts()
			break
		}
		if s.maxPrograms > 0 && res.Tried >= s.maxPrograms {
			break
		}

		p, ok := enum.Next()
		if !ok {
			break
		}
		s.stats.IncrementCandidates()
		if !pruner.Accept(p) {
			s.stats.IncrementPruned()
			continue
		}

		res.Tried++
		probability := g.ProgramProbability(p)
		s.reporters.OnCandidate(t.ID, p, probability)

		if s.matches(t, p, assignments) {
			res.Solved = true
			res.Program = p
			res.Probability = probability
			s.stats.IncrementSolved()
			break
		}
	}

	res.Elapsed = time.Since(start)
	s.reporters.OnResult(res)
	logger.WithFields(logrus.Fields{
		"solved":  res.Solved,
		"tried":   res.Tried,
		"elapsed": res.Elapsed,
	}).Debug("Search finished")
	return res, err
}

// matches runs p on every example. Programs using constants pass an example when
// some binding of the task constants produces its output.
func (s *Synthesizer) matches(t *task.Task, p program.Program, assignments []map[string]any) bool {
	ce, withConstants := s.evaluator.(semantic.ConstantEvaluator)
	withConstants = withConstants && program.UsesKind(p, program.KindConstant)

	for _, ex := range t.Examples {
		if !withConstants {
			if !s.run(func() (any, error) { return s.evaluator.Eval(p, ex.Inputs) }, ex.Output) {
				return false
			}
			continue
		}

		passed := false
		for _, consts := range assignments {
			if s.run(func() (any, error) { return ce.EvalWithConstants(p, ex.Inputs, consts) }, ex.Output) {
				passed = true
				break
			}
		}
		if !passed {
			return false
		}
	}
	return true
}

func (s *Synthesizer) run(eval func() (any, error), want any) bool {
	s.stats.IncrementEvaluations()
	got, err := eval()
	if err != nil {
		s.stats.IncrementEvalErrors()
		return false
	}
	return semantic.Equal(got, want)
}
