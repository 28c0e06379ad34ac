/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: loader.go
Description: Task file loading. YAML and JSON are accepted, chosen by file
extension. Numbers are normalized so that integral values compare as int.
*/

package task

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/kleascm/akaylee-synth/pkg/semantic"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// Format of a task file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type rawTask struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	TypeRequest string           `yaml:"type_request" json:"type_request"`
	Examples    []Example        `yaml:"examples" json:"examples"`
	Constants   map[string][]any `yaml:"constants" json:"constants"`
	Metadata    map[string]any   `yaml:"metadata" json:"metadata"`
}

type rawFile struct {
	DSL   DSLDef    `yaml:"dsl" json:"dsl"`
	Tasks []rawTask `yaml:"tasks" json:"tasks"`
}

// FormatOf infers the format from a path extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidFile, filepath.Ext(path))
	}
}

// Load reads a task file
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes task file content
func Parse(data []byte, format Format) (*File, error) {
	var raw rawFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFile, format)
	}

	if _, err := raw.DSL.Syntax(); err != nil {
		return nil, err
	}

	f := &File{DSL: raw.DSL}
	for i, rt := range raw.Tasks {
		t, err := rt.resolve(i)
		if err != nil {
			return nil, err
		}
		f.Tasks = append(f.Tasks, t)
	}
	return f, nil
}

func (rt rawTask) resolve(i int) (*Task, error) {
	id := rt.ID
	if id == "" {
		id = rt.Name
	}
	if id == "" {
		id = fmt.Sprintf("task-%d", i)
	}
	if rt.TypeRequest == "" {
		return nil, fmt.Errorf("%w: task %s: type_request is required", ErrInvalidFile, id)
	}
	tr, err := typesys.Parse(rt.TypeRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s: %w", ErrInvalidFile, id, err)
	}

	arity := typesys.Arity(tr)
	examples := make([]Example, len(rt.Examples))
	for j, ex := range rt.Examples {
		if len(ex.Inputs) != arity {
			return nil, fmt.Errorf("%w: task %s: example %d has %d inputs, type request takes %d",
				ErrInvalidFile, id, j, len(ex.Inputs), arity)
		}
		inputs := make([]any, len(ex.Inputs))
		for k, in := range ex.Inputs {
			inputs[k] = normalize(in)
		}
		examples[j] = Example{Inputs: inputs, Output: normalize(ex.Output)}
	}

	constants := make(map[string][]any, len(rt.Constants))
	for k, vs := range rt.Constants {
		t, err := typesys.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%w: task %s: constant type: %w", ErrInvalidFile, id, err)
		}
		values := make([]any, len(vs))
		for j, v := range vs {
			values[j] = normalize(v)
		}
		constants[t.String()] = values
	}

	name := rt.Name
	if name == "" {
		name = id
	}
	return &Task{
		ID:          id,
		Name:        name,
		TypeRequest: tr,
		Examples:    examples,
		Constants:   constants,
		Metadata:    rt.Metadata,
	}, nil
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// normalize resolves JSON numbers and applies semantic normalization
func normalize(v any) any {
	switch x := v.(type) {
	case number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		if f, err := x.Float64(); err == nil {
			return semantic.Normalize(f)
		}
		return v
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	default:
		return semantic.Normalize(v)
	}
}
