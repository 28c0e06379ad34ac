/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: synthesizer_test.go
Description: Tests for the synthesis loop: solving, exhaustion, timeouts,
cancellation, constants injection, pruning and reporting.
*/

package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/pruning"
	"github.com/kleascm/akaylee-synth/pkg/search"
	"github.com/kleascm/akaylee-synth/pkg/semantic"
	"github.com/kleascm/akaylee-synth/pkg/task"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func succTask() *task.Task {
	return &task.Task{
		ID:          "succ",
		Name:        "succ",
		TypeRequest: typesys.MustParse("int -> int"),
		Examples: []task.Example{
			{Inputs: []any{1}, Output: 2},
			{Inputs: []any{41}, Output: 42},
		},
	}
}

type recorder struct {
	candidates int
	results    []*search.Result
}

func (r *recorder) OnCandidate(string, program.Program, float64) { r.candidates++ }
func (r *recorder) OnResult(res *search.Result)                  { r.results = append(r.results, res) }

// TestSolve tests that a consistent program is found and reported
func TestSolve(t *testing.T) {
	rec := &recorder{}
	eval := semantic.NewDSLEvaluator(semantic.ArithSemantics())
	s := search.NewSynthesizer(eval, search.WithReporter(rec), search.WithTimeout(0))

	res, err := s.Solve(context.Background(), succTask(), plusGrammar(t, nil))
	require.NoError(t, err)
	require.True(t, res.Solved)
	assert.NoError(t, res.Err())
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "succ", res.TaskID)
	assert.Equal(t, search.StrategyHeap, res.Strategy)
	assert.Greater(t, res.Probability, 0.0)

	out, err := eval.Eval(res.Program, []any{10})
	require.NoError(t, err)
	assert.Equal(t, 11, out)

	assert.Equal(t, int(res.Tried), rec.candidates)
	require.Len(t, rec.results, 1)

	stats := s.Stats().Snapshot()
	assert.Equal(t, int64(1), stats.Tasks)
	assert.Equal(t, int64(1), stats.Solved)
	assert.GreaterOrEqual(t, stats.Evaluations, res.Tried)
}

// TestSolveBucket tests solving with bucketed enumeration
func TestSolveBucket(t *testing.T) {
	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()),
		search.WithStrategy(search.StrategyBucket, func(g *grammar.ProbGrammar) search.Enumerator {
			return search.NewBucketSearch(g, 4)
		}))

	res, err := s.Solve(context.Background(), succTask(), plusGrammar(t, nil))
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Equal(t, search.StrategyBucket, res.Strategy)
}

// TestSolveExhausted tests an unsolvable task tries every program
func TestSolveExhausted(t *testing.T) {
	tk := succTask()
	tk.Examples = []task.Example{{Inputs: []any{1}, Output: 100}}

	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()), search.WithTimeout(0))
	res, err := s.Solve(context.Background(), tk, plusGrammar(t, nil))
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.False(t, res.TimedOut)
	assert.Nil(t, res.Program)
	assert.Equal(t, int64(37), res.Tried)
}

// TestSolveLimits tests the timeout, the program bound and cancellation
func TestSolveLimits(t *testing.T) {
	tk := succTask()
	tk.Examples = []task.Example{{Inputs: []any{1}, Output: 100}}
	eval := semantic.NewDSLEvaluator(semantic.ArithSemantics())

	s := search.NewSynthesizer(eval, search.WithTimeout(time.Nanosecond))
	res, err := s.Solve(context.Background(), tk, plusGrammar(t, nil))
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.ErrorIs(t, res.Err(), search.ErrTimeout)
	assert.Equal(t, int64(1), s.Stats().Snapshot().Timeouts)

	s = search.NewSynthesizer(eval, search.WithTimeout(0), search.WithMaxPrograms(5))
	res, err = s.Solve(context.Background(), tk, plusGrammar(t, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Tried)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = s.Solve(ctx, tk, plusGrammar(t, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Tried)
}

// TestSolveWithConstants tests constants injection across examples
func TestSolveWithConstants(t *testing.T) {
	d := dsl.New(map[string]typesys.Type{"+": typesys.MustParse("int -> int -> int")}, nil)
	table := grammar.Build(d, typesys.MustParse("int -> int"), 3, grammar.ConstantTypes(typesys.INT))
	table.Clean()
	g := grammar.Uniform(table)

	tk := succTask()
	tk.Examples = []task.Example{
		{Inputs: []any{1}, Output: 6},
		{Inputs: []any{2}, Output: 7},
	}
	tk.Constants = map[string][]any{"int": {3, 5}}

	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()))
	res, err := s.Solve(context.Background(), tk, g)
	require.NoError(t, err)
	require.True(t, res.Solved)
	assert.True(t, program.UsesKind(res.Program, program.KindConstant))
}

// TestSolvePruning tests that rejected candidates are never evaluated
func TestSolvePruning(t *testing.T) {
	rec := &recorder{}
	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()),
		search.WithPruner(pruning.RequireVariables(1)),
		search.WithReporter(rec))

	res, err := s.Solve(context.Background(), succTask(), plusGrammar(t, nil))
	require.NoError(t, err)
	require.True(t, res.Solved)

	stats := s.Stats().Snapshot()
	assert.GreaterOrEqual(t, stats.Pruned, int64(1))
	assert.Equal(t, stats.Candidates, stats.Pruned+res.Tried)
	assert.Equal(t, int(res.Tried), rec.candidates)
}

// TestRequireVariables tests the per task variable pruner
func TestRequireVariables(t *testing.T) {
	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()), search.WithRequireVariables(true))

	res, err := s.Solve(context.Background(), succTask(), plusGrammar(t, nil))
	require.NoError(t, err)
	require.True(t, res.Solved)
	assert.True(t, program.UsesKind(res.Program, program.KindVariable))
	assert.GreaterOrEqual(t, s.Stats().Snapshot().Pruned, int64(1))
}

// TestPool tests parallel solving keeps job order and reports every job once
func TestPool(t *testing.T) {
	hard := succTask()
	hard.ID = "hard"
	hard.Examples = []task.Example{{Inputs: []any{1}, Output: 100}}
	again := succTask()
	again.ID = "again"

	jobs := []search.Job{
		{Task: succTask(), Grammar: plusGrammar(t, nil)},
		{Task: hard, Grammar: plusGrammar(t, nil)},
		{Task: again, Grammar: plusGrammar(t, nil)},
	}

	s := search.NewSynthesizer(semantic.NewDSLEvaluator(semantic.ArithSemantics()), search.WithTimeout(0))
	pool := search.NewPool(s, 2)
	assert.Equal(t, 2, pool.Workers())

	done := map[int]bool{}
	outcomes := pool.Run(context.Background(), jobs, func(o search.Outcome) {
		assert.False(t, done[o.Index])
		done[o.Index] = true
	})
	require.Len(t, outcomes, 3)
	assert.Len(t, done, 3)
	for i, o := range outcomes {
		require.NoError(t, o.Err)
		assert.Equal(t, i, o.Index)
		assert.Equal(t, jobs[i].Task.ID, o.Result.TaskID)
	}
	assert.True(t, outcomes[0].Result.Solved)
	assert.False(t, outcomes[1].Result.Solved)
	assert.True(t, outcomes[2].Result.Solved)
	assert.Equal(t, int64(3), s.Stats().Snapshot().Tasks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, o := range pool.Run(ctx, jobs, nil) {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}

	assert.Positive(t, search.NewPool(s, 0).Workers())
}
