/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: forbidden.go
Description: Forbidden successor patterns: for a (parent primitive, argument index)
position, the set of primitive names that may not appear directly there.
*/

package dsl

import (
	"fmt"
	"sort"
	"strings"
)

// Pattern identifies an argument position of a parent primitive
type Pattern struct {
	Parent string
	Arg    int
}

// String renders the pattern as parent#arg
func (p Pattern) String() string {
	return fmt.Sprintf("%s#%d", p.Parent, p.Arg)
}

// NameSet is a set of primitive names
type NameSet map[string]struct{}

// Has reports membership
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Forbidden maps argument positions to forbidden successor names
type Forbidden map[Pattern]NameSet

// Add forbids names at (parent, arg)
func (f Forbidden) Add(parent string, arg int, names ...string) {
	key := Pattern{Parent: parent, Arg: arg}
	set, ok := f[key]
	if !ok {
		set = make(NameSet)
		f[key] = set
	}
	for _, n := range names {
		set[n] = struct{}{}
	}
}

// IsForbidden reports whether name is forbidden at (parent, arg)
func (f Forbidden) IsForbidden(parent string, arg int, name string) bool {
	set, ok := f[Pattern{Parent: parent, Arg: arg}]
	return ok && set.Has(name)
}

// Clone deep copies the table
func (f Forbidden) Clone() Forbidden {
	out := make(Forbidden, len(f))
	for k, v := range f {
		set := make(NameSet, len(v))
		for n := range v {
			set[n] = struct{}{}
		}
		out[k] = set
	}
	return out
}

// Patterns returns the keys in a stable order
func (f Forbidden) Patterns() []Pattern {
	out := make([]Pattern, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Arg < out[j].Arg
	})
	return out
}

func (f Forbidden) String() string {
	parts := make([]string, 0, len(f))
	for _, p := range f.Patterns() {
		parts = append(parts, p.String()+"->{"+strings.Join(f[p].Sorted(), ",")+"}")
	}
	return strings.Join(parts, " ")
}
