/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: arith.go
Description: Reference arithmetic and list DSL. Integers are Go ints and lists
are []any, matching what task files decode into.
*/

package semantic

import (
	"errors"
	"fmt"

	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

var ErrEmptyList = errors.New("empty list")

// ArithSyntax returns the type of every primitive of the arithmetic DSL
func ArithSyntax() map[string]typesys.Type {
	src := map[string]string{
		"zero":    "int",
		"one":     "int",
		"two":     "int",
		"+":       "int -> int -> int",
		"-":       "int -> int -> int",
		"*":       "int -> int -> int",
		"empty":   "list(int)",
		"cons":    "int -> list(int) -> list(int)",
		"head":    "list(int) -> int",
		"tail":    "list(int) -> list(int)",
		"length":  "list(int) -> int",
		"sum":     "list(int) -> int",
		"reverse": "list(int) -> list(int)",
		"map":     "('a -> 'b) -> list('a) -> list('b)",
	}
	out := make(map[string]typesys.Type, len(src))
	for name, t := range src {
		out[name] = typesys.MustParse(t)
	}
	return out
}

// ArithSemantics returns the implementation of every ArithSyntax primitive
func ArithSemantics() Semantics {
	return Semantics{
		"zero":  0,
		"one":   1,
		"two":   2,
		"empty": []any{},
		"+":     binaryInt(func(a, b int) int { return a + b }),
		"-":     binaryInt(func(a, b int) int { return a - b }),
		"*":     binaryInt(func(a, b int) int { return a * b }),
		"cons": Func{Arity: 2, Fn: func(args []any) (any, error) {
			xs, err := toList(args[1])
			if err != nil {
				return nil, err
			}
			return append([]any{args[0]}, xs...), nil
		}},
		"head": unaryList(func(xs []any) (any, error) {
			if len(xs) == 0 {
				return nil, ErrEmptyList
			}
			return xs[0], nil
		}),
		"tail": unaryList(func(xs []any) (any, error) {
			if len(xs) == 0 {
				return nil, ErrEmptyList
			}
			return append([]any{}, xs[1:]...), nil
		}),
		"length": unaryList(func(xs []any) (any, error) { return len(xs), nil }),
		"sum": unaryList(func(xs []any) (any, error) {
			total := 0
			for _, x := range xs {
				n, err := toInt(x)
				if err != nil {
					return nil, err
				}
				total += n
			}
			return total, nil
		}),
		"reverse": unaryList(func(xs []any) (any, error) {
			out := make([]any, len(xs))
			for i, x := range xs {
				out[len(xs)-1-i] = x
			}
			return out, nil
		}),
		"map": Func{Arity: 2, Fn: func(args []any) (any, error) {
			xs, err := toList(args[1])
			if err != nil {
				return nil, err
			}
			out := make([]any, len(xs))
			for i, x := range xs {
				if out[i], err = Apply(args[0], x); err != nil {
					return nil, err
				}
			}
			return out, nil
		}},
	}
}

func binaryInt(op func(a, b int) int) Func {
	return Func{Arity: 2, Fn: func(args []any) (any, error) {
		a, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toInt(args[1])
		if err != nil {
			return nil, err
		}
		return op(a, b), nil
	}}
}

func unaryList(op func(xs []any) (any, error)) Func {
	return Func{Arity: 1, Fn: func(args []any) (any, error) {
		xs, err := toList(args[0])
		if err != nil {
			return nil, err
		}
		return op(xs)
	}}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("expected int, got %T", v)
}

func toList(v any) ([]any, error) {
	switch xs := v.(type) {
	case []any:
		return xs, nil
	case []int:
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = x
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list, got %T", v)
}
