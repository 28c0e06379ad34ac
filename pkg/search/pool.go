/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pool.go
Description: Worker pool solving independent tasks in parallel with a shared
Synthesizer. Each task is still searched by a single goroutine.
*/

package search

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/task"
)

// Job is one task with its grammar
type Job struct {
	Task    *task.Task
	Grammar *grammar.ProbGrammar
}

// Outcome is the result of a Job
type Outcome struct {
	Index  int // position of the job in the submitted slice
	Worker int
	Result *Result
	Err    error
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	synth   *Synthesizer
	workers int
}

// worker solves jobs one at a time
type worker struct {
	id     int
	solved int64
	tried  int64
	logger logrus.FieldLogger
}

// NewPool creates a pool; workers <= 0 uses one worker per CPU
func NewPool(s *Synthesizer, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{synth: s, workers: workers}
}

// Workers returns the number of workers
func (p *Pool) Workers() int { return p.workers }

// Run solves every job and returns the outcomes in job order. onDone, when not
// nil, is called once per job in completion order and never concurrently.
// Jobs not started before ctx is cancelled carry ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job, onDone func(Outcome)) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	queue := make(chan int)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	n := min(p.workers, len(jobs))
	for id := 0; id < n; id++ {
		w := &worker{id: id, logger: p.synth.logger.WithField("worker", id)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				out := w.solve(ctx, p.synth, jobs[i])
				out.Index = i

				mu.Lock()
				outcomes[i] = out
				if onDone != nil {
					onDone(out)
				}
				mu.Unlock()
			}
			w.logger.WithFields(logrus.Fields{"solved": w.solved, "tried": w.tried}).Debug("Worker finished")
		}()
	}

	sent := 0
feed:
	for ; sent < len(jobs); sent++ {
		select {
		case <-ctx.Done():
			break feed
		case queue <- sent:
		}
	}
	close(queue)
	wg.Wait()

	for i := sent; i < len(jobs); i++ {
		outcomes[i] = Outcome{Index: i, Worker: -1, Err: ctx.Err()}
	}
	return outcomes
}

func (w *worker) solve(ctx context.Context, s *Synthesizer, job Job) Outcome {
	res, err := s.Solve(ctx, job.Task, job.Grammar)
	w.tried += res.Tried
	if res.Solved {
		w.solved++
	}
	return Outcome{Worker: w.id, Result: res, Err: err}
}
