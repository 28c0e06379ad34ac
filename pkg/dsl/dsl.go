/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dsl.go
Description: Domain specific language definition consumed by the grammar builder.
Holds the typed primitive list and the forbidden successor patterns, and provides
the two idempotent preparation steps run before building a grammar: polymorphic
instantiation and forbidden pattern materialization over duplicated names.
*/

package dsl

import (
	"sort"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// DuplicateSeparator separates a surface name from its duplicate counter: "zero@1"
const DuplicateSeparator = "@"

// Prefix returns the surface name shared by a primitive and all its duplicates
func Prefix(name string) string {
	if i := strings.Index(name, DuplicateSeparator); i > 0 {
		return name[:i]
	}
	return name
}

// IsDuplicate reports whether name was produced by duplication
func IsDuplicate(name string) bool {
	return strings.Index(name, DuplicateSeparator) > 0
}

// DSL is a named set of typed primitives
type DSL struct {
	primitives []program.Derivable
	forbidden  Forbidden

	instantiated          bool
	forbiddenMaterialized bool
}

// New creates a DSL from a name to type mapping and an optional forbidden table.
// Primitives are ordered by name for deterministic grammars.
func New(syntax map[string]typesys.Type, forbidden Forbidden) *DSL {
	names := make([]string, 0, len(syntax))
	for name := range syntax {
		names = append(names, name)
	}
	sort.Strings(names)

	prims := make([]program.Derivable, 0, len(names))
	for _, name := range names {
		prims = append(prims, program.NewPrimitive(name, syntax[name]))
	}

	if forbidden == nil {
		forbidden = make(Forbidden)
	}

	return &DSL{
		primitives: prims,
		forbidden:  forbidden.Clone(),
	}
}

// ListPrimitives returns the primitives in their stable order
func (d *DSL) ListPrimitives() []program.Derivable {
	out := make([]program.Derivable, len(d.primitives))
	copy(out, d.primitives)
	return out
}

// ForbiddenPatterns returns the forbidden successor table
func (d *DSL) ForbiddenPatterns() Forbidden {
	return d.forbidden
}

// Lookup returns every primitive carrying the given name
func (d *DSL) Lookup(name string) []program.Derivable {
	var out []program.Derivable
	for _, p := range d.primitives {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the distinct primitive names in order
func (d *DSL) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range d.primitives {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names
}

// GroundTypes returns the primitive types occurring in monomorphic parts of the DSL
func (d *DSL) GroundTypes() []typesys.Type {
	var basics []typesys.Type
	seen := make(map[string]bool)
	for _, p := range d.primitives {
		prims, _ := typesys.Decompose(p.Typ)
		for _, b := range prims {
			if !seen[b.String()] {
				seen[b.String()] = true
				basics = append(basics, b)
			}
		}
	}
	sort.Slice(basics, func(i, j int) bool { return basics[i].String() < basics[j].String() })
	return basics
}

// InstantiatePolymorphicTypes replaces every polymorphic primitive by all of its
// ground instantiations whose type size is at most bound. Instances keep the
// primitive name. Calling it again is a no-op.
func (d *DSL) InstantiatePolymorphicTypes(bound int) {
	if d.instantiated {
		return
	}
	d.instantiated = true

	candidates := typesys.GroundTypes(d.GroundTypes())

	var out []program.Derivable
	for _, p := range d.primitives {
		if !typesys.IsPolymorphic(p.Typ) {
			out = append(out, p)
			continue
		}
		for _, t := range typesys.Instantiate(p.Typ, candidates, bound) {
			out = append(out, program.NewPrimitive(p.Name, t))
		}
	}
	d.primitives = out
}

// InstantiateForbidden extends the forbidden table to duplicated names: a pattern
// on a surface name applies to all of its duplicates, and forbidding a surface
// name also forbids its duplicates. Calling it again is a no-op.
func (d *DSL) InstantiateForbidden() {
	if d.forbiddenMaterialized {
		return
	}
	d.forbiddenMaterialized = true

	byPrefix := make(map[string][]string)
	for _, name := range d.Names() {
		byPrefix[Prefix(name)] = append(byPrefix[Prefix(name)], name)
	}

	expand := func(name string) []string {
		if IsDuplicate(name) {
			return []string{name}
		}
		if names, ok := byPrefix[name]; ok {
			return names
		}
		return []string{name}
	}

	out := make(Forbidden)
	for pattern, names := range d.forbidden {
		var targets []string
		for _, n := range names.Sorted() {
			targets = append(targets, expand(n)...)
		}
		for _, parent := range expand(pattern.Parent) {
			out.Add(parent, pattern.Arg, targets...)
		}
	}
	d.forbidden = out
}
