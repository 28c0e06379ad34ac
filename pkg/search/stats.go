/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Synthesis statistics. Counters are updated atomically so a progress
display can read them while a search is running.
*/

package search

import (
	"sync/atomic"
	"time"
)

// Stats tracks a synthesis run over one or more tasks
type Stats struct {
	Tasks               int64     `json:"tasks"`                 // Tasks attempted
	Solved              int64     `json:"solved"`                // Tasks solved
	Timeouts            int64     `json:"timeouts"`              // Tasks stopped by the timeout
	Candidates          int64     `json:"candidates"`            // Programs produced by enumerators
	Pruned              int64     `json:"pruned"`                // Programs rejected before evaluation
	Evaluations         int64     `json:"evaluations"`           // Program runs on single examples
	EvalErrors          int64     `json:"eval_errors"`           // Runs that failed at runtime
	StartTime           time.Time `json:"start_time"`            // When the run started
	CandidatesPerSecond float64   `json:"candidates_per_second"` // Filled by Snapshot
}

// NewStats starts a run now
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) IncrementTasks()       { atomic.AddInt64(&s.Tasks, 1) }
func (s *Stats) IncrementSolved()      { atomic.AddInt64(&s.Solved, 1) }
func (s *Stats) IncrementTimeouts()    { atomic.AddInt64(&s.Timeouts, 1) }
func (s *Stats) IncrementCandidates()  { atomic.AddInt64(&s.Candidates, 1) }
func (s *Stats) IncrementPruned()      { atomic.AddInt64(&s.Pruned, 1) }
func (s *Stats) IncrementEvaluations() { atomic.AddInt64(&s.Evaluations, 1) }
func (s *Stats) IncrementEvalErrors()  { atomic.AddInt64(&s.EvalErrors, 1) }

// Snapshot returns a consistent copy with the candidate rate filled in
func (s *Stats) Snapshot() Stats {
	out := Stats{
		Tasks:       atomic.LoadInt64(&s.Tasks),
		Solved:      atomic.LoadInt64(&s.Solved),
		Timeouts:    atomic.LoadInt64(&s.Timeouts),
		Candidates:  atomic.LoadInt64(&s.Candidates),
		Pruned:      atomic.LoadInt64(&s.Pruned),
		Evaluations: atomic.LoadInt64(&s.Evaluations),
		EvalErrors:  atomic.LoadInt64(&s.EvalErrors),
		StartTime:   s.StartTime,
	}
	if elapsed := time.Since(s.StartTime).Seconds(); elapsed > 0 {
		out.CandidatesPerSecond = float64(out.Candidates) / elapsed
	}
	return out
}
