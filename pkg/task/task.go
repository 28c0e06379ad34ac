/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: task.go
Description: Synthesis tasks and the DSL description carried by task files. A
task pairs a type request with input/output examples and optional constants.
*/

package task

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

var ErrInvalidFile = errors.New("invalid task file")

// Example is one input/output pair
type Example struct {
	Inputs []any `yaml:"inputs" json:"inputs"`
	Output any   `yaml:"output" json:"output"`
}

// Task is a synthesis problem
type Task struct {
	ID          string
	Name        string
	TypeRequest typesys.Type
	Examples    []Example
	// Constants lists candidate values per constant type string
	Constants map[string][]any
	Metadata  map[string]any
}

// ConstantAssignments returns every binding of one value per constant type,
// in a deterministic order. A task without constants yields a single empty binding.
func (t *Task) ConstantAssignments() []map[string]any {
	types := make([]string, 0, len(t.Constants))
	for k, vs := range t.Constants {
		if len(vs) > 0 {
			types = append(types, k)
		}
	}
	sort.Strings(types)

	out := []map[string]any{{}}
	for _, k := range types {
		var next []map[string]any
		for _, partial := range out {
			for _, v := range t.Constants[k] {
				m := make(map[string]any, len(partial)+1)
				for pk, pv := range partial {
					m[pk] = pv
				}
				m[k] = v
				next = append(next, m)
			}
		}
		out = next
	}
	return out
}

// PatternDef is a forbidden pattern as written in task files
type PatternDef struct {
	Parent string   `yaml:"parent" json:"parent"`
	Arg    int      `yaml:"arg" json:"arg"`
	Names  []string `yaml:"names" json:"names"`
}

// DSLDef describes a DSL with types written as strings
type DSLDef struct {
	// Semantics names a built-in semantics table, such as "arith"
	Semantics     string             `yaml:"semantics" json:"semantics"`
	Primitives    map[string]string  `yaml:"primitives" json:"primitives"`
	Forbidden     []PatternDef       `yaml:"forbidden" json:"forbidden"`
	Constraints   []string           `yaml:"constraints" json:"constraints"`
	ConstantTypes []string           `yaml:"constant_types" json:"constant_types"`
	Weights       map[string]float64 `yaml:"weights" json:"weights"`
}

// Syntax parses the primitive types
func (s DSLDef) Syntax() (map[string]typesys.Type, error) {
	out := make(map[string]typesys.Type, len(s.Primitives))
	for name, src := range s.Primitives {
		t, err := typesys.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %s: %w", ErrInvalidFile, name, err)
		}
		out[name] = t
	}
	return out, nil
}

// ForbiddenTable builds the forbidden successor table
func (s DSLDef) ForbiddenTable() dsl.Forbidden {
	f := make(dsl.Forbidden)
	for _, p := range s.Forbidden {
		f.Add(p.Parent, p.Arg, p.Names...)
	}
	return f
}

// Constants parses the constant types
func (s DSLDef) Constants() ([]typesys.Type, error) {
	out := make([]typesys.Type, 0, len(s.ConstantTypes))
	for _, src := range s.ConstantTypes {
		t, err := typesys.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: constant type: %w", ErrInvalidFile, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// File is a decoded task file
type File struct {
	DSL   DSLDef
	Tasks []*Task
}
