/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter hooks for the synthesis loop.
*/

package search

import (
	"github.com/kleascm/akaylee-synth/pkg/program"
)

// Reporter is notified of synthesis events
type Reporter interface {
	// OnCandidate is called for every enumerated program that passed pruning
	OnCandidate(taskID string, p program.Program, probability float64)
	// OnResult is called once per task
	OnResult(r *Result)
}

// multiReporter fans events out to several reporters
type multiReporter []Reporter

func (m multiReporter) OnCandidate(taskID string, p program.Program, probability float64) {
	for _, r := range m {
		r.OnCandidate(taskID, p, probability)
	}
}

func (m multiReporter) OnResult(res *Result) {
	for _, r := range m {
		r.OnResult(res)
	}
}
