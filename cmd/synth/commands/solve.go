/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: solve.go
Description: Solve command. Runs the synthesizer over every task of a task file,
resuming from a result store and writing a JSON report.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/logging"
	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/pruning"
	"github.com/kleascm/akaylee-synth/pkg/search"
	"github.com/kleascm/akaylee-synth/pkg/store"
	"github.com/kleascm/akaylee-synth/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// taskReport is one task in a solve report
type taskReport struct {
	TaskID      string  `json:"task_id"`
	TaskName    string  `json:"task_name"`
	ResultID    string  `json:"result_id"`
	Solved      bool    `json:"solved"`
	TimedOut    bool    `json:"timed_out"`
	Program     string  `json:"program,omitempty"`
	Probability float64 `json:"probability"`
	Tried       int64   `json:"tried"`
	ElapsedMS   int64   `json:"elapsed_ms"`
	Programs    string  `json:"grammar_programs"`
}

// solveReport is written to output_dir after a solve run
type solveReport struct {
	Version      string       `json:"version"`
	File         string       `json:"file"`
	Strategy     string       `json:"strategy"`
	MaxDepth     int          `json:"max_depth"`
	Timeout      string       `json:"timeout"`
	Skipped      int          `json:"skipped"`
	CacheHitRate float64      `json:"cache_hit_rate"`
	Stats        search.Stats `json:"stats"`
	Tasks        []taskReport `json:"tasks"`
}

// logReporter forwards synthesis events to the logger
type logReporter struct {
	logger *logging.Logger
}

func (r *logReporter) OnCandidate(taskID string, p program.Program, probability float64) {
	r.logger.LogCandidate(taskID, p.String(), probability)
}

func (r *logReporter) OnResult(res *search.Result) {
	switch {
	case res.Solved:
		r.logger.LogSolution(res.TaskID, res.Program.String(), res.Probability, res.Tried, res.Elapsed)
	case res.TimedOut:
		r.logger.LogTimeout(res.TaskID, res.Tried, res.Elapsed)
	default:
		r.logger.LogUnsolved(res.TaskID, res.Tried, res.Elapsed)
	}
}

// RunSolve solves every task of a task file
func RunSolve(cmd *cobra.Command, args []string) error {
	logger, err := prepare()
	if err != nil {
		return err
	}
	defer logger.Close()

	file, err := loadFile(args)
	if err != nil {
		return err
	}
	syntax, err := resolveSyntax(file.DSL)
	if err != nil {
		return err
	}
	evaluator, err := resolveEvaluator(file.DSL, syntax)
	if err != nil {
		return err
	}

	strategy := viper.GetString("search")
	factory, err := search.NewFactory(strategy, viper.GetInt("bucket_size"))
	if err != nil {
		return err
	}
	if strategy == "" {
		strategy = search.StrategyHeap
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := viper.GetString("profile_dir"); dir != "" {
		profiler := utils.NewProfiler(dir, logger.GetLogger())
		if err := profiler.Start(); err != nil {
			return err
		}
		defer profiler.Stop()
	}

	var st *store.Store
	completed := map[string]bool{}
	if path := viper.GetString("store"); path != "" {
		if st, err = store.Open(path); err != nil {
			return err
		}
		defer st.Close()
		if completed, err = st.Completed(ctx); err != nil {
			return err
		}
	}

	report := &solveReport{
		Version:  Version,
		File:     args[0],
		Strategy: strategy,
		MaxDepth: viper.GetInt("max_depth"),
		Timeout:  viper.GetDuration("timeout").String(),
	}

	var probOpts []grammar.ProbOption
	if vp := viper.GetFloat64("variable_probability"); vp > 0 {
		probOpts = append(probOpts, grammar.VariableProbability(vp))
	}

	var jobs []search.Job
	var sizes []string
	for _, t := range file.Tasks {
		if completed[t.ID] {
			report.Skipped++
			logger.GetLogger().WithField("task", t.ID).Info("Task already in store, skipping")
			continue
		}
		table, err := buildGrammar(logger, file.DSL, syntax, file.DSL.Constraints, t.TypeRequest)
		if err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
		jobs = append(jobs, search.Job{Task: t, Grammar: grammar.FromWeights(table, file.DSL.Weights, probOpts...)})
		sizes = append(sizes, table.Size().String())
	}

	stats := search.NewStats()
	synth := search.NewSynthesizer(evaluator, synthOptions(logger, stats, strategy, factory)...)
	pool := search.NewPool(synth, viper.GetInt("workers"))

	var bar *utils.Progress
	if viper.GetBool("progress") {
		bar = utils.NewProgress(os.Stderr, "tasks", len(jobs))
		defer bar.Finish()
	}

	var saveErr error
	outcomes := pool.Run(ctx, jobs, func(o search.Outcome) {
		if bar != nil {
			bar.Add(1)
		}
		if st == nil || o.Err != nil || saveErr != nil {
			return
		}
		saveErr = st.Save(ctx, record(o.Result))
	})
	if bar != nil {
		bar.Finish()
	}
	if saveErr != nil {
		return saveErr
	}

	for _, o := range outcomes {
		if o.Err != nil {
			// interrupted, the partial result is not stored
			logger.GetLogger().WithError(o.Err).WithField("task", jobs[o.Index].Task.ID).Warn("Task interrupted")
			continue
		}
		res := o.Result
		tr := taskReport{
			TaskID:      res.TaskID,
			TaskName:    res.TaskName,
			ResultID:    res.ID,
			Solved:      res.Solved,
			TimedOut:    res.TimedOut,
			Probability: res.Probability,
			Tried:       res.Tried,
			ElapsedMS:   res.Elapsed.Milliseconds(),
			Programs:    sizes[o.Index],
		}
		if res.Solved {
			tr.Program = res.Program.String()
		}
		report.Tasks = append(report.Tasks, tr)
	}

	snapshot := stats.Snapshot()
	report.Stats = snapshot
	report.CacheHitRate = evaluator.CacheHitRate()
	logger.LogStats(snapshot.Tasks, snapshot.Solved, snapshot.Candidates, snapshot.CandidatesPerSecond, logrus.Fields{
		"timeouts":       snapshot.Timeouts,
		"eval_errors":    snapshot.EvalErrors,
		"skipped":        report.Skipped,
		"cache_hit_rate": report.CacheHitRate,
	})

	printSummary(report)

	if dir := viper.GetString("output_dir"); dir != "" {
		path, err := utils.WriteReport(dir, "solve", Version, report)
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", path)
	}
	return ctx.Err()
}

func record(res *search.Result) store.Record {
	r := store.Record{
		TaskID:      res.TaskID,
		ResultID:    res.ID,
		TaskName:    res.TaskName,
		Solved:      res.Solved,
		Probability: res.Probability,
		Tried:       res.Tried,
		Elapsed:     res.Elapsed,
		Strategy:    res.Strategy,
		CreatedAt:   time.Now(),
	}
	if res.Solved {
		r.Program = res.Program.String()
	}
	return r
}

func synthOptions(logger *logging.Logger, stats *search.Stats, strategy string, factory search.Factory) []search.SynthOption {
	opts := []search.SynthOption{
		search.WithTimeout(viper.GetDuration("timeout")),
		search.WithMaxPrograms(viper.GetInt64("max_programs")),
		search.WithStrategy(strategy, factory),
		search.WithStats(stats),
		search.WithReporter(&logReporter{logger: logger}),
		search.WithSynthLogger(logger.GetLogger()),
	}
	if viper.GetBool("require_variables") {
		opts = append(opts, search.WithRequireVariables(true))
	}
	if n := viper.GetInt("max_size"); n > 0 {
		opts = append(opts, search.WithPruner(pruning.MaxSize(n)))
	}
	return opts
}

func printSummary(r *solveReport) {
	solved := 0
	fmt.Println()
	for _, t := range r.Tasks {
		status := "FAIL"
		switch {
		case t.Solved:
			status = "OK"
			solved++
		case t.TimedOut:
			status = "TIMEOUT"
		}
		fmt.Printf("  %-8s %-20s tried=%-8d %dms %s\n", status, t.TaskID, t.Tried, t.ElapsedMS, t.Program)
	}
	fmt.Printf("\nSolved %d/%d tasks", solved, len(r.Tasks))
	if r.Skipped > 0 {
		fmt.Printf(" (%d skipped from store)", r.Skipped)
	}
	fmt.Printf(", %.2f candidates/sec\n", r.Stats.CandidatesPerSecond)
}
