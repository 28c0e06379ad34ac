/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: instantiate.go
Description: Ground instantiation of polymorphic types. Every placeholder is replaced
by each candidate ground type, keeping only results whose size stays within a bound.
*/

package typesys

import (
	"sort"
)

// GroundTypes builds the candidate set used to instantiate placeholders from the
// primitive types in basics: each basic type, list(x), list(list(x)) and x -> y.
// The result is sorted by size then canonical string.
func GroundTypes(basics []Type) []Type {
	seen := make(map[string]bool)
	var out []Type
	add := func(t Type) {
		if seen[t.String()] {
			return
		}
		seen[t.String()] = true
		out = append(out, t)
	}

	for _, b := range basics {
		add(b)
	}
	for _, b := range basics {
		add(List(b))
		add(List(List(b)))
	}
	for _, x := range basics {
		for _, y := range basics {
			add(Arrow(x, y))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size() != out[j].Size() {
			return out[i].Size() < out[j].Size()
		}
		return out[i].String() < out[j].String()
	})
	return out
}

// Instantiate returns every ground instantiation of t obtained by substituting each
// placeholder with a type from candidates, keeping only results of size <= bound.
// A monomorphic t is returned alone. Results are deduplicated and ordered.
func Instantiate(t Type, candidates []Type, bound int) []Type {
	_, polys := Decompose(t)
	if len(polys) == 0 {
		return []Type{t}
	}

	current := []Type{t}
	for _, p := range polys {
		var next []Type
		for _, partial := range current {
			for _, c := range candidates {
				instance := Subst{p.name: c}.Apply(partial)
				if instance.Size() > bound {
					continue
				}
				next = append(next, instance)
			}
		}
		current = next
	}

	seen := make(map[string]bool, len(current))
	out := current[:0]
	for _, inst := range current {
		if seen[inst.String()] {
			continue
		}
		seen[inst.String()] = true
		out = append(out, inst)
	}
	return out
}
