/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pruner.go
Description: Candidate pruning for the synthesis loop. A pruner rejects programs
before they are evaluated; Union combines several pruners.
*/

package pruning

import (
	"github.com/kleascm/akaylee-synth/pkg/program"
)

// Pruner decides whether a candidate is worth evaluating
type Pruner interface {
	Accept(p program.Program) bool
}

// Func adapts a function to Pruner
type Func func(p program.Program) bool

// Accept calls f
func (f Func) Accept(p program.Program) bool { return f(p) }

// Union accepts a program only if every member accepts it
type Union struct {
	pruners []Pruner
}

// NewUnion combines pruners
func NewUnion(pruners ...Pruner) *Union {
	return &Union{pruners: pruners}
}

// Add appends a pruner
func (u *Union) Add(p Pruner) {
	u.pruners = append(u.pruners, p)
}

// Len returns the number of members
func (u *Union) Len() int { return len(u.pruners) }

// Accept reports whether all members accept p
func (u *Union) Accept(p program.Program) bool {
	for _, pr := range u.pruners {
		if !pr.Accept(p) {
			return false
		}
	}
	return true
}

// MaxSize rejects programs with more than n nodes
func MaxSize(n int) Pruner {
	return Func(func(p program.Program) bool { return program.Size(p) <= n })
}

// RequireVariables rejects programs that ignore every type request argument.
// Programs for a type request without arguments are always accepted.
func RequireVariables(arity int) Pruner {
	return Func(func(p program.Program) bool {
		return arity == 0 || program.UsesKind(p, program.KindVariable)
	})
}
