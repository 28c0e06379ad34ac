/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: unify.go
Description: Substitution based unification for polymorphic types. Used to check
whether two types match once polymorphic placeholders are resolved.
*/

package typesys

import (
	"fmt"
	"sort"
	"strings"
)

// Subst maps placeholder names to the types bound to them
type Subst map[string]Type

// Apply substitutes every bound placeholder in t, following chains of bindings
func (s Subst) Apply(t Type) Type {
	if len(s) == 0 {
		return t
	}
	switch v := t.(type) {
	case *PolymorphicType:
		if bound, ok := s[v.name]; ok {
			if p, isPoly := bound.(*PolymorphicType); isPoly && p.name == v.name {
				return bound
			}
			return s.Apply(bound)
		}
		return t
	case *ListType:
		return List(s.Apply(v.elem))
	case *ArrowType:
		return Arrow(s.Apply(v.in), s.Apply(v.out))
	default:
		return t
	}
}

// String renders the substitution in a stable order
func (s Subst) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("'%s := %s", k, s[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Unify finds a substitution that makes a and b equal
func Unify(a, b Type) (Subst, error) {
	s := make(Subst)
	if err := unify(a, b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Matches reports whether a and b are equal after resolving polymorphic bindings
func Matches(a, b Type) bool {
	_, err := Unify(a, b)
	return err == nil
}

func unify(a, b Type, s Subst) error {
	a = s.Apply(a)
	b = s.Apply(b)

	if Equal(a, b) {
		return nil
	}

	if pa, ok := a.(*PolymorphicType); ok {
		return bind(pa, b, s)
	}
	if pb, ok := b.(*PolymorphicType); ok {
		return bind(pb, a, s)
	}

	switch va := a.(type) {
	case *ListType:
		if vb, ok := b.(*ListType); ok {
			return unify(va.elem, vb.elem, s)
		}
	case *ArrowType:
		if vb, ok := b.(*ArrowType); ok {
			if err := unify(va.in, vb.in, s); err != nil {
				return err
			}
			return unify(va.out, vb.out, s)
		}
	}

	return fmt.Errorf("cannot unify %s with %s", a, b)
}

func bind(p *PolymorphicType, t Type, s Subst) error {
	if Contains(t, func(x Type) bool {
		q, ok := x.(*PolymorphicType)
		return ok && q.name == p.name
	}) {
		return fmt.Errorf("occurs check: '%s occurs in %s", p.name, t)
	}
	s[p.name] = t
	return nil
}
