/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parse.go
Description: Parser for the textual type syntax used in definition files, e.g.
"int -> list(int) -> int" or "('a -> 'b) -> list('a) -> list('b)".
*/

package typesys

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrParse is returned (wrapped) for every malformed type string
var ErrParse = errors.New("type parse error")

// Parse reads a type from its textual form. Arrows associate to the right,
// placeholders start with a quote and list(T) builds a list type.
func Parse(input string) (Type, error) {
	p := &typeParser{src: input}
	p.skipSpace()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and literals.
func MustParse(input string) Type {
	t, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d in %q: %s", ErrParse, p.pos, p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) parseType() (Type, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "->") {
		p.pos += 2
		p.skipSpace()
		right, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Arrow(left, right), nil
	}
	return left, nil
}

func (p *typeParser) parseAtom() (Type, error) {
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch p.src[p.pos] {
	case '(':
		p.pos++
		p.skipSpace()
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, p.errorf("missing ')'")
		}
		p.pos++
		return inner, nil
	case '\'':
		p.pos++
		name := p.ident()
		if name == "" {
			return nil, p.errorf("missing placeholder name")
		}
		return Polymorphic(name), nil
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}

	// list(T)
	if name == "list" && p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		p.skipSpace()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, p.errorf("missing ')' after list element")
		}
		p.pos++
		return List(elem), nil
	}

	return Primitive(name), nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '@' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
