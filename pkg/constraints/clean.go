/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: clean.go
Description: Removal of dangling duplicates left behind by partial constraint
application. Only duplicated primitives (and casts) are ever removed.
*/

package constraints

import (
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// isFresh reports whether t mentions a duplicated type
func isFresh(t typesys.Type) bool {
	return typesys.Contains(t, func(x typesys.Type) bool {
		p, ok := x.(*typesys.PrimitiveType)
		return ok && strings.Contains(p.Name(), dsl.DuplicateSeparator)
	})
}

// clean removes duplicated primitives that can never be used: some argument type
// cannot be produced, or their fresh return type is consumed nowhere. It iterates
// to a fixpoint and returns the number of removed primitives.
func clean(s *Syntax, typeRequest typesys.Type) int {
	removed := 0
	for {
		producible := producibleTypes(s, typeRequest)
		consumed := consumedTypes(s, typeRequest)

		var drop []string
		for _, n := range s.Names() {
			if !dsl.IsDuplicate(n) {
				continue
			}
			t, _ := s.Type(n)

			ok := true
			for _, a := range typesys.Arguments(t) {
				if isFresh(a) && !producible[a.String()] {
					ok = false
					break
				}
			}
			if ok && isFresh(typesys.Returns(t)) && !servesAny(t, consumed) {
				ok = false
			}
			if !ok {
				drop = append(drop, n)
			}
		}

		if len(drop) == 0 {
			return removed
		}
		for _, n := range drop {
			s.Remove(n)
		}
		removed += len(drop)
	}
}

// servesAny reports whether some suffix of the arrow chain t is consumed
func servesAny(t typesys.Type, consumed map[string]bool) bool {
	for {
		if consumed[t.String()] {
			return true
		}
		arrow, ok := t.(*typesys.ArrowType)
		if !ok {
			return false
		}
		t = arrow.Out()
	}
}

// producibleTypes computes the fresh types some expression can produce, seeded
// by the type request arguments
func producibleTypes(s *Syntax, typeRequest typesys.Type) map[string]bool {
	produced := make(map[string]bool)
	canUse := func(t typesys.Type) bool {
		return !isFresh(t) || produced[t.String()]
	}
	// mark t and every suffix reachable with producible arguments
	mark := func(t typesys.Type) bool {
		changed := false
		for {
			if !produced[t.String()] {
				produced[t.String()] = true
				changed = true
			}
			arrow, ok := t.(*typesys.ArrowType)
			if !ok || !canUse(arrow.In()) {
				return changed
			}
			t = arrow.Out()
		}
	}

	if typeRequest != nil {
		for _, a := range typesys.Arguments(typeRequest) {
			mark(a)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, n := range s.Names() {
			t, _ := s.Type(n)
			if mark(t) {
				changed = true
			}
		}
	}
	return produced
}

// consumedTypes computes the types required by some position reachable from the
// original primitives or the type request
func consumedTypes(s *Syntax, typeRequest typesys.Type) map[string]bool {
	consumed := make(map[string]bool)
	var queue []typesys.Type
	push := func(t typesys.Type) {
		if !consumed[t.String()] {
			consumed[t.String()] = true
			queue = append(queue, t)
		}
	}

	if typeRequest != nil {
		push(typesys.Returns(typeRequest))
		for _, a := range typesys.Arguments(typeRequest) {
			for _, inner := range typesys.Arguments(a) {
				push(inner)
			}
		}
	}
	for _, n := range s.Names() {
		if dsl.IsDuplicate(n) {
			continue
		}
		t, _ := s.Type(n)
		push(typesys.Returns(t))
		for _, a := range typesys.Arguments(t) {
			push(a)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range s.Names() {
			t, _ := s.Type(n)
			args, ok := typesys.EndsWith(t, current)
			if !ok {
				continue
			}
			for _, a := range args {
				push(a)
			}
		}
	}
	return consumed
}
